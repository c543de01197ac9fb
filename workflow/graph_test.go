package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearDef() Definition {
	return Definition{
		Name: "linear", Description: "d", Version: "1",
		Steps: []Step{
			{ID: "a", Agent: "coder", Description: "step a"},
			{ID: "b", Agent: "coder", Description: "step b", DependsOn: []string{"a"}},
			{ID: "c", Agent: "coder", Description: "step c", DependsOn: []string{"b"}},
		},
	}
}

func TestBuildGraph_TracksDependenciesAndDependents(t *testing.T) {
	g := BuildGraph(linearDef())
	assert.ElementsMatch(t, []string{"a"}, g.Dependencies("b"))
	assert.ElementsMatch(t, []string{"b"}, g.Dependents("a"))
	assert.Empty(t, g.Dependencies("a"))
	assert.Empty(t, g.Dependents("c"))
}

func TestValidate_PassesForAcyclicGraph(t *testing.T) {
	g := BuildGraph(linearDef())
	assert.NoError(t, g.Validate())
}

func TestValidate_RejectsUnknownDependency(t *testing.T) {
	def := Definition{
		Name: "bad", Description: "d", Version: "1",
		Steps: []Step{{ID: "a", Agent: "coder", Description: "d", DependsOn: []string{"ghost"}}},
	}
	g := BuildGraph(def)
	err := g.Validate()
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindValidation, werr.Kind)
}

func TestValidate_DetectsDirectCycle(t *testing.T) {
	def := Definition{
		Name: "cyclic", Description: "d", Version: "1",
		Steps: []Step{
			{ID: "a", Agent: "coder", Description: "d", DependsOn: []string{"b"}},
			{ID: "b", Agent: "coder", Description: "d", DependsOn: []string{"a"}},
		},
	}
	g := BuildGraph(def)
	err := g.Validate()
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindCycle, werr.Kind)
}

func TestValidate_DetectsLongerCycle(t *testing.T) {
	def := Definition{
		Name: "cyclic3", Description: "d", Version: "1",
		Steps: []Step{
			{ID: "a", Agent: "coder", Description: "d", DependsOn: []string{"c"}},
			{ID: "b", Agent: "coder", Description: "d", DependsOn: []string{"a"}},
			{ID: "c", Agent: "coder", Description: "d", DependsOn: []string{"b"}},
		},
	}
	g := BuildGraph(def)
	err := g.Validate()
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindCycle, werr.Kind)
}
