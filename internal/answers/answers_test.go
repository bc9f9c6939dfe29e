package answers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeResultFile creates a result JSONL file in a temp dir and
// returns its path.
func writeResultFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestRecord_Status verifies the answered/pending/failed
// classification, including that only the failure-marker prefix (not
// an occurrence elsewhere) marks a record failed.
func TestRecord_Status(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   Status
	}{
		{"blank answer is pending", "", StatusPending},
		{"real answer", "根据《中华人民共和国民法典》……", StatusAnswered},
		{"failure marker", "处理出错: RetryError", StatusFailed},
		{"bare failure marker", "处理出错", StatusFailed},
		{"marker mid-answer does not count", "该问题曾处理出错，现已修复", StatusAnswered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{ID: "1", Question: "q", Answer: tt.answer}
			assert.Equal(t, tt.want, rec.Status())
		})
	}
}

// TestLoad verifies JSONL parsing, blank-line tolerance, and ID
// formatting preservation.
func TestLoad(t *testing.T) {
	path := writeResultFile(t, `{"id": 1, "question": "第一问", "answer": "答案一"}

{"id": 2, "question": "第二问", "answer": ""}
{"id": 3, "question": "第三问", "answer": "处理出错: 超时"}
`)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "1", records[0].ID.String())
	assert.Equal(t, "第一问", records[0].Question)
	assert.Equal(t, StatusAnswered, records[0].Status())
	assert.Equal(t, StatusPending, records[1].Status())
	assert.Equal(t, StatusFailed, records[2].Status())
}

// TestLoad_MalformedLine verifies that a corrupt record fails with the
// line number in the error.
func TestLoad_MalformedLine(t *testing.T) {
	path := writeResultFile(t, `{"id": 1, "question": "q", "answer": "a"}
not json at all
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, ":2:")
}

// TestLoad_MissingFile verifies the error path for an absent result
// file (e.g. answers requested before any run).
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to open result file")
}

// TestSummarize counts records per status.
func TestSummarize(t *testing.T) {
	records := []Record{
		{ID: "1", Answer: "done"},
		{ID: "2", Answer: ""},
		{ID: "3", Answer: "处理出错"},
		{ID: "4", Answer: "also done"},
	}

	s := Summarize(records)
	assert.Equal(t, Summary{Answered: 2, Pending: 1, Failed: 1}, s)
	assert.Equal(t, 4, s.Total())
}

// TestFilter returns only the records with the requested status.
func TestFilter(t *testing.T) {
	records := []Record{
		{ID: "1", Answer: "done"},
		{ID: "2", Answer: ""},
		{ID: "3", Answer: "处理出错"},
	}

	pending := Filter(records, StatusPending)
	require.Len(t, pending, 1)
	assert.Equal(t, "2", pending[0].ID.String())

	assert.Empty(t, Filter(nil, StatusFailed))
}
