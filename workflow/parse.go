package workflow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldIssue is one schema-validation failure against a parsed Definition,
// named the way original_source's parser.py's Pydantic errors report: a
// dotted field path plus a human message.
type FieldIssue struct {
	Field   string
	Message string
}

func (i FieldIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ParseFile reads and parses a workflow YAML document from path.
func ParseFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, newError(KindValidation, "parser", "parse_file", "reading workflow file", err)
	}
	return Parse(data)
}

// Parse decodes a workflow YAML document and validates it against the
// field constraints original_source's WorkflowDefinitionSchema enforces:
// name/description/version/steps required, each step's id/agent/
// description required, timeout (if set) positive, max_retries
// non-negative.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, newError(KindValidation, "parser", "parse", "invalid YAML", err)
	}
	if issues := validateDefinition(def); len(issues) > 0 {
		return Definition{}, newError(KindValidation, "parser", "parse", formatIssues(issues), nil)
	}
	return def, nil
}

func formatIssues(issues []FieldIssue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func validateDefinition(def Definition) []FieldIssue {
	var issues []FieldIssue

	if strings.TrimSpace(def.Name) == "" {
		issues = append(issues, FieldIssue{"name", "must not be empty"})
	}
	if strings.TrimSpace(def.Description) == "" {
		issues = append(issues, FieldIssue{"description", "must not be empty"})
	}
	if strings.TrimSpace(def.Version) == "" {
		issues = append(issues, FieldIssue{"version", "must not be empty"})
	}
	if len(def.Steps) == 0 {
		issues = append(issues, FieldIssue{"steps", "must contain at least one step"})
	}

	seen := make(map[string]bool, len(def.Steps))
	for idx, s := range def.Steps {
		prefix := fmt.Sprintf("steps[%d]", idx)
		if strings.TrimSpace(s.ID) == "" {
			issues = append(issues, FieldIssue{prefix + ".id", "must not be empty"})
		} else if seen[s.ID] {
			issues = append(issues, FieldIssue{prefix + ".id", fmt.Sprintf("duplicate step id %q", s.ID)})
		} else {
			seen[s.ID] = true
		}
		if strings.TrimSpace(s.Agent) == "" {
			issues = append(issues, FieldIssue{prefix + ".agent", "must not be empty"})
		}
		if strings.TrimSpace(s.Description) == "" {
			issues = append(issues, FieldIssue{prefix + ".description", "must not be empty"})
		}
		if s.Timeout < 0 {
			issues = append(issues, FieldIssue{prefix + ".timeout", "must be positive"})
		}
		if s.MaxRetries < 0 {
			issues = append(issues, FieldIssue{prefix + ".max_retries", "must be non-negative"})
		}
	}
	return issues
}

// Builder is the programmatic counterpart to ParseFile/Parse, mirroring
// original_source's PythonWorkflowBuilder fluent API for callers
// constructing a workflow in code rather than loading it from disk.
type Builder struct {
	def     Definition
	stepIDs map[string]bool
	err     error
}

// NewBuilder starts a workflow builder. name and version are required;
// an empty one causes every subsequent call and Build to fail with the
// first recorded error.
func NewBuilder(name, version string) *Builder {
	b := &Builder{stepIDs: make(map[string]bool)}
	if strings.TrimSpace(name) == "" {
		b.err = newError(KindValidation, "builder", "new", "workflow name must not be empty", nil)
		return b
	}
	if strings.TrimSpace(version) == "" {
		b.err = newError(KindValidation, "builder", "new", "workflow version must not be empty", nil)
		return b
	}
	b.def.Name = name
	b.def.Version = version
	return b
}

func (b *Builder) Description(d string) *Builder {
	b.def.Description = d
	return b
}

func (b *Builder) Author(a string) *Builder {
	b.def.Author = a
	return b
}

func (b *Builder) Metadata(m map[string]any) *Builder {
	b.def.Metadata = m
	return b
}

// AddStep appends a step, failing the build if id duplicates one already
// added.
func (b *Builder) AddStep(s Step) *Builder {
	if b.err != nil {
		return b
	}
	if b.stepIDs[s.ID] {
		b.err = newError(KindValidation, "builder", "add_step", fmt.Sprintf("duplicate step id %q", s.ID), nil)
		return b
	}
	b.stepIDs[s.ID] = true
	b.def.Steps = append(b.def.Steps, s)
	return b
}

// Build finalizes the definition, validating it the same way Parse does.
func (b *Builder) Build() (Definition, error) {
	if b.err != nil {
		return Definition{}, b.err
	}
	if issues := validateDefinition(b.def); len(issues) > 0 {
		return Definition{}, newError(KindValidation, "builder", "build", formatIssues(issues), nil)
	}
	return b.def, nil
}
