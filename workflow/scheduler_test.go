package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches_LinearChainIsOneStepPerBatch(t *testing.T) {
	g := BuildGraph(linearDef())
	batches, err := g.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a"}, batches[0])
	assert.Equal(t, []string{"b"}, batches[1])
	assert.Equal(t, []string{"c"}, batches[2])
}

func TestBatches_DiamondGroupsIndependentSteps(t *testing.T) {
	def := Definition{
		Name: "diamond", Description: "d", Version: "1",
		Steps: []Step{
			{ID: "a", Agent: "coder", Description: "d"},
			{ID: "b", Agent: "coder", Description: "d", DependsOn: []string{"a"}},
			{ID: "c", Agent: "coder", Description: "d", DependsOn: []string{"a"}},
			{ID: "d", Agent: "coder", Description: "d", DependsOn: []string{"b", "c"}},
		},
	}
	g := BuildGraph(def)
	batches, err := g.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a"}, batches[0])
	assert.ElementsMatch(t, []string{"b", "c"}, batches[1])
	assert.Equal(t, []string{"d"}, batches[2])
}

func TestBatches_CycleReturnsError(t *testing.T) {
	def := Definition{
		Name: "cyclic", Description: "d", Version: "1",
		Steps: []Step{
			{ID: "a", Agent: "coder", Description: "d", DependsOn: []string{"b"}},
			{ID: "b", Agent: "coder", Description: "d", DependsOn: []string{"a"}},
		},
	}
	g := BuildGraph(def)
	_, err := g.Batches()
	require.Error(t, err)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindCycle, werr.Kind)
}

func TestTopoSort_RespectsDependencyOrder(t *testing.T) {
	g := BuildGraph(linearDef())
	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}
