package permission

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRuleSet reads a JSON rule bundle from path (spec §6's
// `permissions.json` shape: `{rules: [...], default: "allow"|"ask"|"deny"}`).
// A missing file is not an error — callers use it for the optional
// project-level rules file, which most repos won't have — it yields an
// empty set defaulting to def.
func LoadRuleSet(path string, def Level) (*RuleSet, error) {
	rs := NewRuleSet(def)
	if path == "" {
		return rs, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return rs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permission: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("permission: parse %s: %w", path, err)
	}
	if rs.Default == "" {
		rs.Default = def
	}
	return rs, nil
}

// SaveRuleSet writes rs to path as indented JSON, creating the file (or
// truncating an existing one). Used by the "add/remove permission rule"
// upward interface operation (spec §6) to persist session-confirmed rules.
func SaveRuleSet(path string, rs *RuleSet) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("permission: marshal rule set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("permission: write %s: %w", path, err)
	}
	return nil
}
