package systemcall

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/opgrid/internal/engine"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

const echoOps = `
operation "SystemCall" "Run Solver" {
  command = "sh -c 'echo \"$@\" > args.txt' solver"
  append_input "Load" {
    option = "--load"
  }
  append_input "Scale" {}
}
`

func TestSystemCall_AppendsInputs(t *testing.T) {
	t.Parallel()
	requireShell(t)

	// Arrange
	dir := t.TempDir()
	e, err := testutil.BuildEngine(mesh.Serial(1, 0), testutil.Operations(t, filepath.Join(dir, "ops.hcl"), echoOps), &Module{})
	require.NoError(t, err)
	testutil.Import(t, e, "Load", layout.Scalar, 2.5)
	testutil.Import(t, e, "Scale", layout.Scalar, 1, 3)

	// Act
	testutil.Compute(t, e, "Run Solver")

	// Assert
	out, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "--load 2.5 1 3\n", string(out))
}

func TestSystemCall_FailureIsIOErrorOnEveryRank(t *testing.T) {
	t.Parallel()
	requireShell(t)

	// Arrange
	src := `
operation "SystemCall" "Fail" {
  command = "sh -c 'echo broken; exit 3'"
}
`
	errs := make([]error, 2)

	// Act
	testutil.RunRanks(t, testutil.TwoRankLineMesh(t), src, func(e *engine.Engine) error {
		errs[e.Rank()] = e.Compute(context.Background(), "Fail")
		return nil
	}, &Module{})

	// Assert
	for rank, err := range errs {
		assert.True(t, errors.Is(err, engineerr.ErrIO), "rank %d: got %v", rank, err)
	}
	assert.Contains(t, errs[0].Error(), "broken")
}

func TestNew_InvalidCommand(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":          `command = ""`,
		"unterminated":   `command = "sh -c 'oops"`,
		"missing":        ``,
		"unknown option": "command = \"true\"\n  retries = 2",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			src := "operation \"SystemCall\" \"S\" {\n  " + body + "\n}\n"

			// Act
			_, err := testutil.BuildEngine(mesh.Serial(1, 0), testutil.Operations(t, "ops.hcl", src), &Module{})

			// Assert
			assert.True(t, errors.Is(err, engineerr.ErrConfiguration), "got %v", err)
		})
	}
}
