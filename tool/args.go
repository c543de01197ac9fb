package tool

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeArgs loosely coerces a tool call's JSON arguments (a map[string]any)
// into a typed struct, mirroring this codebase's pervasive mapstructure usage
// for config/tool-call decoding. Unknown extra fields are preserved by the
// caller (they're dropped from the typed struct but the original map is
// still available); missing required fields are checked by each tool's
// Execute, not here.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("tool: build arg decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("tool: decode arguments: %w", err)
	}
	return nil
}

// requireString fails fast with a structured error if key is absent or
// empty, matching the dispatch pipeline's "missing required fields fail
// fast" contract (spec §4.5 step 1).
func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

func optString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func optBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func optInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
