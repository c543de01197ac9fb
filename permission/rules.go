package permission

import "fmt"

// Level is a permission decision.
type Level string

const (
	Allow Level = "allow"
	Ask   Level = "ask"
	Deny  Level = "deny"
)

// restrictiveness orders levels from least to most restrictive, used to
// break priority/specificity ties in favor of the safer outcome.
func (l Level) restrictiveness() int {
	switch l {
	case Allow:
		return 0
	case Ask:
		return 1
	case Deny:
		return 2
	default:
		return 1
	}
}

// Rule is a single permission rule: a pattern, the decision it carries, and
// metadata used for precedence.
type Rule struct {
	Pattern     string `json:"pattern"`
	Permission  Level  `json:"permission"`
	Priority    int    `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

// Result is the outcome of evaluating a RuleSet (or chain of RuleSets)
// against a tool call.
type Result struct {
	Level  Level
	Rule   *Rule
	Reason string
}

// toolCategories maps well-known built-in tool names to a coarse category
// tag, used by "category:" pattern clauses. Unknown tools fall back to
// "other".
var toolCategories = map[string]string{
	"Read":        "filesystem",
	"Write":       "filesystem",
	"Edit":        "filesystem",
	"Glob":        "filesystem",
	"Grep":        "filesystem",
	"Bash":        "execution",
	"BashOutput":  "execution",
	"KillShell":   "execution",
	"WebFetch":    "network",
	"Task":        "delegation",
}

func categoryFor(toolName string) string {
	if cat, ok := toolCategories[toolName]; ok {
		return cat
	}
	return "other"
}

// match reports whether pattern matches (toolName, args) — every clause of
// the comma-joined pattern must match.
func match(pattern, toolName string, args map[string]any) bool {
	for _, c := range parsePattern(pattern) {
		switch c.kind {
		case "tool":
			if !matchValue(c.pattern, toolName) {
				return false
			}
		case "arg":
			val, ok := args[c.argName]
			if !ok || val == nil {
				return false
			}
			if !matchValue(c.pattern, fmt.Sprintf("%v", val)) {
				return false
			}
		case "category":
			if categoryFor(toolName) != c.pattern {
				return false
			}
		}
	}
	return true
}

// specificity scores a pattern: more specific patterns (exact tool names,
// argument constraints) outrank broader ones when multiple rules match.
func specificity(pattern string) int {
	score := 0
	for _, c := range parsePattern(pattern) {
		score += 10
		switch c.kind {
		case "tool":
			if hasGlobMeta(c.pattern) {
				score += 5
			} else {
				score += 20
			}
		case "arg":
			score += 30
			if hasGlobMeta(c.pattern) {
				score += 5
			} else {
				score += 20
			}
		case "category":
			score += 5
		}
	}
	return score
}

// RuleSet is an ordered collection of rules plus a default decision applied
// when nothing matches.
type RuleSet struct {
	Rules   []Rule `json:"rules"`
	Default Level  `json:"default"`
}

// NewRuleSet builds an empty rule set with the given default decision.
func NewRuleSet(def Level) *RuleSet {
	return &RuleSet{Default: def}
}

// AddRule appends a rule to the set.
func (rs *RuleSet) AddRule(rule Rule) {
	rs.Rules = append(rs.Rules, rule)
}

// RemoveRule removes the first rule with the given pattern, reporting
// whether anything was removed.
func (rs *RuleSet) RemoveRule(pattern string) bool {
	for i, r := range rs.Rules {
		if r.Pattern == pattern {
			rs.Rules = append(rs.Rules[:i], rs.Rules[i+1:]...)
			return true
		}
	}
	return false
}

type ruleMatch struct {
	rule        Rule
	specificity int
}

// Evaluate selects the winning rule for (toolName, args): highest priority,
// then highest specificity, then most-restrictive permission on ties.
func (rs *RuleSet) Evaluate(toolName string, args map[string]any) Result {
	var matches []ruleMatch
	for _, rule := range rs.Rules {
		if !rule.Enabled {
			continue
		}
		if match(rule.Pattern, toolName, args) {
			matches = append(matches, ruleMatch{rule: rule, specificity: specificity(rule.Pattern)})
		}
	}

	if len(matches) == 0 {
		return Result{Level: rs.Default, Reason: fmt.Sprintf("no matching rules, using default: %s", rs.Default)}
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if betterMatch(m, best) {
			best = m
		}
	}

	reason := best.rule.Description
	if reason == "" {
		reason = fmt.Sprintf("matched rule: %s", best.rule.Pattern)
	}
	rule := best.rule
	return Result{Level: best.rule.Permission, Rule: &rule, Reason: reason}
}

// betterMatch reports whether candidate outranks current by (priority desc,
// specificity desc, restrictiveness desc).
func betterMatch(candidate, current ruleMatch) bool {
	if candidate.rule.Priority != current.rule.Priority {
		return candidate.rule.Priority > current.rule.Priority
	}
	if candidate.specificity != current.specificity {
		return candidate.specificity > current.specificity
	}
	return candidate.rule.Permission.restrictiveness() > current.rule.Permission.restrictiveness()
}
