package workflow

import (
	"regexp"
	"sort"
	"strings"
)

// matchThreshold is the minimum confidence Match requires before
// suggesting a workflow, matching original_source's matcher.py
// match()'s 0.7 cutoff.
const matchThreshold = 0.7

// Match is a scored candidate workflow for a piece of free text,
// mirroring original_source's workflows/matcher.py WorkflowMatch.
type Match struct {
	WorkflowName    string
	Confidence      float64
	TriggerPatterns []string
	Reason          string
}

// Trigger is a built-in heuristic for recognizing when free text (a user
// request, a commit message, an issue body) describes work a named
// workflow automates. Advisory only: nothing in the engine requires a
// Match before a workflow can be run directly by name.
type Trigger struct {
	WorkflowName    string
	Patterns        []*regexp.Regexp
	Keywords        []string
	BaseConfidence  float64
}

// BuiltinTriggers is the fixed catalog of heuristics ported from
// original_source's WorkflowMatcher.BUILTIN_TRIGGERS.
func BuiltinTriggers() []Trigger {
	return []Trigger{
		{
			WorkflowName:   "bug-fix",
			BaseConfidence: 0.85,
			Patterns: compileAll(
				`(?i)fix.*bug`, `(?i)bug.*fix`, `(?i)broken`, `(?i)not working`, `(?i)error.*occur`,
			),
			Keywords: []string{"bug", "broken", "fix", "crash", "fails", "failing"},
		},
		{
			WorkflowName:   "feature-impl",
			BaseConfidence: 0.85,
			Patterns: compileAll(
				`(?i)implement.*feature`, `(?i)add.*feature`, `(?i)new feature`, `(?i)build.*(functionality|feature)`,
			),
			Keywords: []string{"implement", "feature", "add", "build", "new"},
		},
		{
			WorkflowName:   "pr-review",
			BaseConfidence: 0.9,
			Patterns: compileAll(
				`(?i)review.*(pr|pull request)`, `(?i)(pr|pull request).*review`, `(?i)code review`,
			),
			Keywords: []string{"review", "pr", "pull request", "diff"},
		},
		{
			WorkflowName:   "code-quality",
			BaseConfidence: 0.8,
			Patterns: compileAll(
				`(?i)improve.*quality`, `(?i)refactor`, `(?i)clean.?up.*code`, `(?i)technical debt`,
			),
			Keywords: []string{"refactor", "quality", "cleanup", "debt", "lint"},
		},
		{
			WorkflowName:   "security-audit",
			BaseConfidence: 0.9,
			Patterns: compileAll(
				`(?i)security.*(audit|review|scan)`, `(?i)vulnerabilit`, `(?i)cve`, `(?i)exploit`,
			),
			Keywords: []string{"security", "vulnerability", "audit", "cve", "exploit"},
		},
		{
			WorkflowName:   "migration",
			BaseConfidence: 0.85,
			Patterns: compileAll(
				`(?i)migrat`, `(?i)upgrade.*version`, `(?i)move.*to`, `(?i)port.*to`,
			),
			Keywords: []string{"migrate", "migration", "upgrade", "port"},
		},
		{
			WorkflowName:   "parallel-analysis",
			BaseConfidence: 0.8,
			Patterns: compileAll(
				`(?i)analyz.*(multiple|several|many)`, `(?i)compare.*(approach|option)`, `(?i)parallel.*analysis`,
			),
			Keywords: []string{"analyze", "compare", "parallel", "multiple", "options"},
		},
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Matcher scores free text against a catalog of Triggers to suggest a
// workflow, per spec §4.10's Workflow Matcher.
type Matcher struct {
	triggers []Trigger
}

// NewMatcher builds a Matcher seeded with the built-in trigger catalog.
func NewMatcher() *Matcher {
	return &Matcher{triggers: BuiltinTriggers()}
}

// AddTrigger registers an additional trigger, e.g. one a project defines
// for its own custom workflows.
func (m *Matcher) AddTrigger(t Trigger) {
	m.triggers = append(m.triggers, t)
}

// RemoveTrigger drops the trigger for the named workflow, if present.
func (m *Matcher) RemoveTrigger(workflowName string) {
	out := m.triggers[:0]
	for _, t := range m.triggers {
		if t.WorkflowName != workflowName {
			out = append(out, t)
		}
	}
	m.triggers = out
}

// Match returns the single highest-confidence match for text, or false if
// nothing clears matchThreshold.
func (m *Matcher) Match(text string) (Match, bool) {
	matches := m.MatchAll(text, matchThreshold)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

// MatchAll returns every trigger scoring at least minConfidence, sorted
// by confidence descending.
func (m *Matcher) MatchAll(text string, minConfidence float64) []Match {
	var matches []Match
	for _, t := range m.triggers {
		match := calculateMatch(text, t)
		if match.Confidence >= minConfidence {
			matches = append(matches, match)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// calculateMatch scores one trigger against text following
// original_source's _calculate_match: a pattern hit sets confidence to
// the trigger's base, a multi-pattern hit adds a small boost, and keyword
// presence adds a smaller boost each, capped at 1.0. With no pattern hit
// at all, two or more keyword hits give a lower fallback confidence
// instead.
func calculateMatch(text string, t Trigger) Match {
	var matchedPatterns []string
	for _, p := range t.Patterns {
		if p.MatchString(text) {
			matchedPatterns = append(matchedPatterns, p.String())
		}
	}

	lower := strings.ToLower(text)
	keywordHits := 0
	for _, kw := range t.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			keywordHits++
		}
	}

	var confidence float64
	switch {
	case len(matchedPatterns) > 0:
		confidence = t.BaseConfidence
		if len(matchedPatterns) > 1 {
			confidence += 0.05
		}
		confidence += float64(keywordHits) * 0.02
	case keywordHits >= 2:
		confidence = 0.5 + float64(keywordHits)*0.05
	default:
		confidence = 0
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0 {
		confidence = 0
	}

	return Match{
		WorkflowName:    t.WorkflowName,
		Confidence:      confidence,
		TriggerPatterns: matchedPatterns,
		Reason:          generateReason(t.WorkflowName, matchedPatterns, keywordHits),
	}
}

func generateReason(workflowName string, matchedPatterns []string, keywordHits int) string {
	switch {
	case len(matchedPatterns) > 0:
		return "matched " + workflowName + " pattern(s): " + strings.Join(matchedPatterns, ", ")
	case keywordHits >= 2:
		return "matched via keyword overlap for " + workflowName
	default:
		return "no match for " + workflowName
	}
}

// ShouldTrigger reports whether text's best match clears matchThreshold.
func (m *Matcher) ShouldTrigger(text string) bool {
	_, ok := m.Match(text)
	return ok
}

// SuggestedWorkflow returns the name of the best-matching workflow for
// text, if any clears matchThreshold.
func (m *Matcher) SuggestedWorkflow(text string) (string, bool) {
	match, ok := m.Match(text)
	if !ok {
		return "", false
	}
	return match.WorkflowName, true
}
