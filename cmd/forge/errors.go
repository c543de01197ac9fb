package main

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes the CLI maps failures onto, beyond the generic 1 kong's
// FatalIfErrorf already uses for an ordinary error. Permission and hook
// blocks are common, expected outcomes of running an agent or tool
// non-interactively (a script checking $? needs to tell "the tool
// refused" from "the tool crashed"), so they get their own codes.
const (
	exitOK               = 0
	exitError            = 1
	exitPermissionDenied = 3
	exitHookBlocked      = 4
)

// permissionDeniedError reports a tool invocation refused by the
// permission engine, whether by an explicit deny rule or an unanswered
// ask defaulting to deny outside a UI.
type permissionDeniedError struct{ reason string }

func (e *permissionDeniedError) Error() string { return fmt.Sprintf("permission denied: %s", e.reason) }

// hookBlockedError reports a tool invocation refused by a pre-event hook.
type hookBlockedError struct{ reason string }

func (e *hookBlockedError) Error() string { return fmt.Sprintf("blocked by hook: %s", e.reason) }

// classifyToolError turns a failed tool.Result's message into a typed
// error the CLI can map to a distinct exit code, falling back to a plain
// error for anything else the tool body itself rejected with.
func classifyToolError(toolName, reason string) error {
	switch {
	case strings.HasPrefix(reason, "permission denied:"):
		return &permissionDeniedError{reason: strings.TrimSpace(strings.TrimPrefix(reason, "permission denied:"))}
	case strings.HasPrefix(reason, "permission requires confirmation:"):
		return &permissionDeniedError{reason: strings.TrimSpace(strings.TrimPrefix(reason, "permission requires confirmation:"))}
	case strings.HasPrefix(reason, "blocked by pre-hook:"):
		return &hookBlockedError{reason: strings.TrimSpace(strings.TrimPrefix(reason, "blocked by pre-hook:"))}
	default:
		return fmt.Errorf("tool %s reported failure: %s", toolName, reason)
	}
}

// exitCodeFor maps an error from running a subcommand to a process exit
// code, per the CLI's UNIX-exit-code convention: 0 success, distinct
// nonzero codes for permission and hook blocks, 1 for everything else.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var perm *permissionDeniedError
	if errors.As(err, &perm) {
		return exitPermissionDenied
	}
	var hookErr *hookBlockedError
	if errors.As(err, &hookErr) {
		return exitHookBlocked
	}
	return exitError
}
