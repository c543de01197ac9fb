package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWorkflowYAML = `
name: release-prep
description: Prepare a release branch
version: "1.0"
steps:
  - id: build
    agent: coder
    description: build the project
  - id: test
    agent: tester
    description: run the test suite
    depends_on: [build]
`

func TestParse_ValidDocumentRoundTrips(t *testing.T) {
	def, err := Parse([]byte(validWorkflowYAML))
	require.NoError(t, err)
	assert.Equal(t, "release-prep", def.Name)
	assert.Len(t, def.Steps, 2)
	assert.Equal(t, []string{"build"}, def.Steps[1].DependsOn)
}

func TestParse_MissingRequiredFieldsFails(t *testing.T) {
	_, err := Parse([]byte(`name: ""
description: ""
version: ""
steps: []
`))
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindValidation, werr.Kind)
}

func TestParse_DuplicateStepIDFails(t *testing.T) {
	_, err := Parse([]byte(`
name: dup
description: d
version: "1"
steps:
  - id: a
    agent: coder
    description: d
  - id: a
    agent: coder
    description: d
`))
	require.Error(t, err)
}

func TestParse_NegativeMaxRetriesFails(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
description: d
version: "1"
steps:
  - id: a
    agent: coder
    description: d
    max_retries: -1
`))
	require.Error(t, err)
}

func TestParseFile_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validWorkflowYAML), 0o644))

	def, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "release-prep", def.Name)
}

func TestParseFile_MissingFileFails(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuilder_BuildsValidDefinition(t *testing.T) {
	def, err := NewBuilder("my-flow", "1").
		Description("does things").
		Author("forge").
		AddStep(Step{ID: "a", Agent: "coder", Description: "step a"}).
		AddStep(Step{ID: "b", Agent: "coder", Description: "step b", DependsOn: []string{"a"}}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "my-flow", def.Name)
	assert.Len(t, def.Steps, 2)
}

func TestBuilder_EmptyNameFails(t *testing.T) {
	_, err := NewBuilder("", "1").Build()
	assert.Error(t, err)
}

func TestBuilder_DuplicateStepIDFails(t *testing.T) {
	b := NewBuilder("x", "1").
		AddStep(Step{ID: "a", Agent: "coder", Description: "d"}).
		AddStep(Step{ID: "a", Agent: "coder", Description: "d"})
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuilder_MissingDescriptionFails(t *testing.T) {
	_, err := NewBuilder("x", "1").
		AddStep(Step{ID: "a", Agent: "coder", Description: "d"}).
		Build()
	assert.Error(t, err)
}
