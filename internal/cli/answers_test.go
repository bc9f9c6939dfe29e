// Package cli — answers_test.go tests the record selection and file
// resolution logic behind the answers command.
package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/qa-runner/internal/answers"
)

// chdir switches the working directory for the duration of the test,
// standing in for testing.T.Chdir from Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

// TestSelectRecords verifies the --pending/--failed filter semantics.
func TestSelectRecords(t *testing.T) {
	records := []answers.Record{
		{ID: "1", Answer: "done"},
		{ID: "2", Answer: ""},
		{ID: "3", Answer: "处理出错: 超时"},
	}

	tests := []struct {
		name        string
		pendingOnly bool
		failedOnly  bool
		wantIDs     []string
	}{
		{"no filters shows everything", false, false, []string{"1", "2", "3"}},
		{"pending only", true, false, []string{"2"}},
		{"failed only", false, true, []string{"3"}},
		// Both filters select the union: the records a further worker
		// attempt would still pick up.
		{"pending and failed", true, true, []string{"2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectRecords(records, tt.pendingOnly, tt.failedOnly)
			ids := make([]string, 0, len(got))
			for _, rec := range got {
				ids = append(ids, rec.ID.String())
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

// TestResolveAnswersFile verifies that --file wins and that otherwise
// the configured mode's output path is used.
func TestResolveAnswersFile(t *testing.T) {
	chdir(t, t.TempDir())

	path, err := resolveAnswersFile(answersOptions{file: "custom.json"})
	require.NoError(t, err)
	assert.Equal(t, "custom.json", path)

	path, err = resolveAnswersFile(answersOptions{mode: "development"})
	require.NoError(t, err)
	assert.Equal(t, "result_1.json", path)

	path, err = resolveAnswersFile(answersOptions{mode: "production"})
	require.NoError(t, err)
	assert.Equal(t, "/app/result.json", path)
}

// TestResolveAnswersFile_InvalidMode verifies that without --file an
// unknown mode cannot resolve to a result file.
func TestResolveAnswersFile_InvalidMode(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := resolveAnswersFile(answersOptions{mode: "testing"})
	assert.Error(t, err)
}

// TestRunAnswers reads a real result file end to end.
func TestRunAnswers(t *testing.T) {
	chdir(t, t.TempDir())
	content := `{"id": 1, "question": "第一问", "answer": "答案"}
{"id": 2, "question": "第二问", "answer": ""}
`
	require.NoError(t, os.WriteFile("result_1.json", []byte(content), 0o644))

	err := runAnswers(answersOptions{mode: "development"})
	assert.NoError(t, err)

	err = runAnswers(answersOptions{file: "missing.json"})
	assert.Error(t, err)
}
