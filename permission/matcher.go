// Package permission evaluates ALLOW/ASK/DENY decisions for tool calls
// against layered rule sets (session > project > global > default), with
// rate-limited denial backoff.
package permission

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// maxPatternLength bounds a single clause's pattern length to prevent
// ReDoS via pathologically long patterns.
const maxPatternLength = 500

// redosShapes are best-effort shape checks for catastrophic-backtracking
// patterns, not a formal guarantee — see DESIGN.md's Open Questions.
var redosShapes = []*regexp.Regexp{
	regexp.MustCompile(`\([^)]*[+*][^)]*\)[+*]`), // (a+)+ / (a*)*
	regexp.MustCompile(`\[[^\]]*\][+*]{2,}`),     // [a-z]++
	regexp.MustCompile(`(\.\*){3,}`),             // chained .*
}

// clause is one parsed conjunct of a pattern: "tool:", "arg:name:", or
// "category:".
type clause struct {
	kind    string // "tool", "arg", "category"
	argName string
	pattern string
}

// parsePattern splits a comma-joined pattern into its conjunct clauses.
func parsePattern(pattern string) []clause {
	parts := strings.Split(pattern, ",")
	clauses := make([]clause, 0, len(parts))
	for _, part := range parts {
		p := strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(p, "tool:"):
			clauses = append(clauses, clause{kind: "tool", pattern: p[len("tool:"):]})
		case strings.HasPrefix(p, "arg:"):
			rest := p[len("arg:"):]
			if idx := strings.Index(rest, ":"); idx >= 0 {
				clauses = append(clauses, clause{kind: "arg", argName: rest[:idx], pattern: rest[idx+1:]})
			} else {
				clauses = append(clauses, clause{kind: "arg", argName: rest, pattern: "*"})
			}
		case strings.HasPrefix(p, "category:"):
			clauses = append(clauses, clause{kind: "category", pattern: p[len("category:"):]})
		default:
			clauses = append(clauses, clause{kind: "tool", pattern: p})
		}
	}
	return clauses
}

// matcher compiles and caches regex patterns, bounded by a fixed capacity
// so adversarial or accumulated patterns can't grow memory unboundedly.
// Eviction is first-in first-out: once full, the earliest-inserted pattern
// is dropped, and a cache hit does not refresh an entry's position.
type matcher struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp // nil value = known-invalid/rejected
	order []string
	cap   int
}

func newMatcher(capacity int) *matcher {
	if capacity <= 0 {
		capacity = 256
	}
	return &matcher{cache: make(map[string]*regexp.Regexp), cap: capacity}
}

func (m *matcher) compile(pattern string) *regexp.Regexp {
	m.mu.Lock()
	if re, ok := m.cache[pattern]; ok {
		m.mu.Unlock()
		return re
	}
	m.mu.Unlock()

	re := compileGuarded(pattern)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cache[pattern]; !exists {
		if len(m.order) >= m.cap {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.cache, oldest)
		}
		m.order = append(m.order, pattern)
	}
	m.cache[pattern] = re
	return re
}

func compileGuarded(pattern string) *regexp.Regexp {
	if len(pattern) > maxPatternLength {
		return nil
	}
	for _, shape := range redosShapes {
		if shape.MatchString(pattern) {
			return nil
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

var defaultMatcher = newMatcher(256)

// isRegex reports whether pattern should be treated as a regex rather than
// a glob, based on the presence of regex-only metacharacters.
func isRegex(pattern string) bool {
	return strings.ContainsAny(pattern, "^$+\\(){}|")
}

// normalizePathValue resolves ".."/"." in path-like values so pattern
// matching can't be evaded by traversal, e.g. "/etc/../etc/passwd" becomes
// "/etc/passwd" before comparison.
func normalizePathValue(value string) string {
	if strings.ContainsAny(value, `/\`) || strings.HasPrefix(value, ".") {
		return filepath.Clean(value)
	}
	return value
}

// matchValue matches a single clause pattern against a value, trying an
// exact match, then regex (if the pattern looks like one), then glob.
func matchValue(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	if pattern == value {
		return true
	}
	normalized := normalizePathValue(value)
	if isRegex(pattern) {
		re := defaultMatcher.compile(pattern)
		if re == nil {
			return false
		}
		return re.MatchString(normalized)
	}
	return matchGlob(pattern, normalized)
}

// matchGlob mirrors Python's fnmatch.fnmatch: "*" matches any run of
// characters (including path separators — unlike filepath.Match, a glob
// clause like "*rm -rf*" must match a value containing "/"), "?" matches a
// single character, and "[...]" is a character class passed through to the
// translated regex largely as-is.
func matchGlob(pattern, value string) bool {
	re := defaultMatcher.compileGlob(pattern)
	if re == nil {
		return false
	}
	return re.MatchString(value)
}

// compileGlob translates pattern to a regex and caches it under a
// glob-namespaced key, sharing the matcher's bounded cache with raw regex patterns
// without colliding with them.
func (m *matcher) compileGlob(pattern string) *regexp.Regexp {
	key := "glob:" + pattern
	m.mu.Lock()
	if re, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return re
	}
	m.mu.Unlock()

	re := compileGuarded(translateGlob(pattern))

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cache[key]; !exists {
		if len(m.order) >= m.cap {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.cache, oldest)
		}
		m.order = append(m.order, key)
	}
	m.cache[key] = re
	return re
}

// translateGlob converts a shell glob into an anchored regular expression,
// matching fnmatch.translate's behavior for "*", "?", and "[...]".
func translateGlob(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				sb.WriteString(`\[`)
			} else {
				class := pattern[i+1 : j]
				class = strings.Replace(class, `\`, `\\`, -1)
				if strings.HasPrefix(class, "!") {
					class = "^" + class[1:]
				}
				sb.WriteString("[" + class + "]")
				i = j
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
		i++
	}
	sb.WriteString("$")
	return sb.String()
}

// hasGlobMeta reports whether a glob pattern contains wildcard characters,
// used to distinguish "exact" from "glob" for specificity scoring.
func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}
