package proc

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommandWorker_ExitCode verifies that a nonzero subprocess exit is
// returned as a Result, not an error, with the raw code preserved.
func TestCommandWorker_ExitCode(t *testing.T) {
	// "sh -c 'exit 7'" still receives the appended positional arguments
	// (they become $0 and $1), which mirrors how the real run script is
	// invoked with extra arguments.
	worker := NewWorker([]string{"sh", "-c", "exit 7"}, t.TempDir())

	res, err := worker.Run(context.Background(), 3, "result.json")
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
	assert.False(t, res.OK())
}

// TestCommandWorker_Success verifies the zero-exit path.
func TestCommandWorker_Success(t *testing.T) {
	worker := NewWorker([]string{"true"}, t.TempDir())

	res, err := worker.Run(context.Background(), 1, "result.json")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 0, res.ExitCode)
}

// TestCommandWorker_Arguments verifies that the concurrency limit and
// output path are appended as the two positional arguments.
func TestCommandWorker_Arguments(t *testing.T) {
	var out bytes.Buffer
	worker := NewWorker([]string{"sh", "-c", `echo "$0 $1"`}, t.TempDir())
	worker.Stdout = &out

	res, err := worker.Run(context.Background(), 5, "/app/result.json")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "5 /app/result.json\n", out.String())
}

// TestCommandPreparer_Arguments verifies the input/output positional
// argument order of the prepare contract.
func TestCommandPreparer_Arguments(t *testing.T) {
	var out bytes.Buffer
	preparer := NewPreparer([]string{"sh", "-c", `echo "$0 $1"`}, t.TempDir())
	preparer.Stdout = &out

	res, err := preparer.Prepare(context.Background(), "question_c.json", "result.json")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "question_c.json result.json\n", out.String())
}

// TestRun_SpawnError verifies that a missing binary surfaces as an
// error rather than a Result; the orchestrator treats this as a
// transient failure.
func TestRun_SpawnError(t *testing.T) {
	worker := NewWorker([]string{"definitely-not-a-real-binary-qa"}, t.TempDir())

	_, err := worker.Run(context.Background(), 1, "result.json")
	assert.Error(t, err)
}

// TestRun_EmptyCommand verifies the guard against a misconfigured
// empty command line.
func TestRun_EmptyCommand(t *testing.T) {
	worker := NewWorker(nil, t.TempDir())

	_, err := worker.Run(context.Background(), 1, "result.json")
	assert.ErrorContains(t, err, "empty command")
}

// TestCommandWorker_PythonPath verifies that the subprocess sees
// PYTHONPATH extended with the working directory, so local pipeline
// modules resolve.
func TestCommandWorker_PythonPath(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	worker := NewWorker([]string{"sh", "-c", `echo "$PYTHONPATH"`}, dir)
	worker.Stdout = &out

	res, err := worker.Run(context.Background(), 1, "result.json")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Contains(t, out.String(), dir)
}

// TestWithLocalPythonPath covers the environment rewrite rules.
func TestWithLocalPythonPath(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		name string
		env  []string
		dir  string
		want []string
	}{
		{
			name: "no existing PYTHONPATH",
			env:  []string{"HOME=/root"},
			dir:  "/work",
			want: []string{"HOME=/root", "PYTHONPATH=/work"},
		},
		{
			name: "existing PYTHONPATH is preserved behind the dir",
			env:  []string{"PYTHONPATH=/usr/lib/py", "HOME=/root"},
			dir:  "/work",
			want: []string{"PYTHONPATH=/work" + sep + "/usr/lib/py", "HOME=/root"},
		},
		{
			name: "empty existing PYTHONPATH is replaced",
			env:  []string{"PYTHONPATH="},
			dir:  "/work",
			want: []string{"PYTHONPATH=/work"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withLocalPythonPath(tt.env, tt.dir))
		})
	}
}
