package model

import (
	"testing"

	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const aggregatorSrc = `
operation "Aggregator" "Aggregate Energy" {
  layout = "scalar"

  input "Energy 1" {
    weight = 0.75
    normal = "Energy Normal"
  }
  input "Energy 2" {
    weight = "0.25"
  }
  output "Energy" {}
}

operation "SetLowerBounds" "Compute Lower Bounds" {
  fixed_nodes = [0, 4]
  fixed_value = 1
}
`

func TestParseOperations(t *testing.T) {
	t.Parallel()

	// Act
	nodes, err := ParseOperations("ops.hcl", []byte(aggregatorSrc))

	// Assert
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	agg := nodes[0]
	assert.Equal(t, "Aggregator", agg.Function())
	assert.Equal(t, "Aggregate Energy", agg.Name())
	assert.Contains(t, agg.Where(), "ops.hcl")

	l, err := agg.StringOr("layout", "")
	require.NoError(t, err)
	assert.Equal(t, "scalar", l)

	inputs := agg.Blocks("input")
	require.Len(t, inputs, 2)
	assert.Equal(t, "Energy 1", inputs[0].Label(0))

	w, err := inputs[1].RequiredFloat("weight")
	require.NoError(t, err)
	assert.Equal(t, 0.25, w, "quoted numbers convert")

	normal, err := inputs[1].StringOr("normal", "")
	require.NoError(t, err)
	assert.Empty(t, normal)

	out, err := agg.Block("output")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Energy", out.Label(0))

	ids, err := nodes[1].IntList("fixed_nodes")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, ids)
}

func TestNode_ErrorKinds(t *testing.T) {
	t.Parallel()

	nodes, err := ParseOperations("ops.hcl", []byte(aggregatorSrc))
	require.NoError(t, err)
	n := nodes[0]

	cfg := n.Errorf("bad %s", "layout")
	assert.ErrorIs(t, cfg, engineerr.ErrConfiguration)
	assert.Contains(t, cfg.Error(), "Aggregate Energy")
	assert.Contains(t, cfg.Error(), "bad layout")

	invalid := n.Invalidf("%d samples", 3)
	assert.ErrorIs(t, invalid, engineerr.ErrValidation)
	assert.NotErrorIs(t, invalid, engineerr.ErrConfiguration)
	assert.Contains(t, invalid.Error(), "ops.hcl")
	assert.Contains(t, invalid.Error(), "3 samples")
}

func TestParseOperations_Invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		src  string
	}{
		{"syntax", `operation "A" "B" {`},
		{"top level attribute", `x = 1`},
		{"wrong block", `stage "x" {}`},
		{"one label", `operation "A" {}`},
		{"duplicate name", "operation \"A\" \"B\" {}\noperation \"C\" \"B\" {}"},
		{"reference", `operation "A" "B" { x = var.y }`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOperations("ops.hcl", []byte(tc.src))
			assert.ErrorIs(t, err, engineerr.ErrConfiguration)
		})
	}
}

func TestNode_Accessors(t *testing.T) {
	t.Parallel()

	n := NewNode("operation", "F", "N").
		Set("count", cty.NumberIntVal(3)).
		Set("flag", cty.True).
		Set("names", cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})).
		Set("bad", cty.StringVal("not a number")).
		Add(NewNode("output", "X"), NewNode("output", "Y"))

	c, err := n.IntOr("count", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, c)

	d, err := n.IntOr("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, d)

	f, err := n.BoolOr("flag", false)
	require.NoError(t, err)
	assert.True(t, f)

	names, err := n.StringList("names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err = n.FloatOr("bad", 0)
	assert.ErrorIs(t, err, engineerr.ErrConfiguration)

	_, err = n.RequiredString("missing")
	assert.ErrorIs(t, err, engineerr.ErrConfiguration)

	_, err = n.Block("output")
	assert.ErrorIs(t, err, engineerr.ErrConfiguration)

	none, err := n.Block("input")
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Equal(t, "", n.Label(5))
	assert.Equal(t, "<memory>", n.Where())
}

func TestNode_Allow(t *testing.T) {
	t.Parallel()

	n := NewNode("operation", "F", "N").
		Set("layout", cty.StringVal("scalar")).
		Add(NewNode("input", "a"))

	assert.NoError(t, n.Allow([]string{"layout"}, []string{"input"}))

	err := n.Allow([]string{"weight"}, []string{"input"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout")

	err = n.Allow([]string{"layout"}, []string{"output"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}
