// Package answers reads the result JSONL file maintained by the
// external pipeline programs.
//
// The Preparer writes one JSON object per line with a blanked answer
// field; each Worker attempt fills answers in place. This package only
// ever reads the file — classifying each record as answered, pending,
// or failed — and never writes it, since the result file belongs to
// the subprocesses.
package answers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// failedAnswerPrefix is the marker the Worker writes into the answer
// field when a question errored out. Records carrying it are picked up
// again on the next Worker attempt, exactly like blank ones.
const failedAnswerPrefix = "处理出错"

// Status classifies the answer state of a single record.
type Status string

const (
	// StatusAnswered means the record carries a real answer.
	StatusAnswered Status = "answered"

	// StatusPending means the answer is still blank.
	StatusPending Status = "pending"

	// StatusFailed means the Worker recorded a handling error for this
	// question; it will be retried by the next Worker attempt.
	StatusFailed Status = "failed"
)

// Record is one line of the result JSONL file.
type Record struct {
	// ID is the question identifier. json.Number keeps the original
	// numeric formatting intact when re-printed.
	ID json.Number `json:"id"`

	// Question is the original question text.
	Question string `json:"question"`

	// Answer is the current answer, blank until the Worker fills it.
	Answer string `json:"answer"`
}

// Status returns the classification of this record.
func (r Record) Status() Status {
	switch {
	case r.Answer == "":
		return StatusPending
	case strings.HasPrefix(r.Answer, failedAnswerPrefix):
		return StatusFailed
	default:
		return StatusAnswered
	}
}

// Load reads all records from a result JSONL file. Blank lines are
// skipped; a malformed line is an error identifying the line number,
// since a corrupt result file indicates a broken run.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	// Answers can be long; the default 64KiB token limit is too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("malformed record at %s:%d: %w", path, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result file %s: %w", path, err)
	}
	return records, nil
}

// Summary holds per-status record counts for a result file.
type Summary struct {
	Answered int `json:"answered"`
	Pending  int `json:"pending"`
	Failed   int `json:"failed"`
}

// Total returns the number of records counted.
func (s Summary) Total() int {
	return s.Answered + s.Pending + s.Failed
}

// Summarize counts records per status.
func Summarize(records []Record) Summary {
	var s Summary
	for _, rec := range records {
		switch rec.Status() {
		case StatusAnswered:
			s.Answered++
		case StatusPending:
			s.Pending++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Filter returns the records matching the given status.
func Filter(records []Record, status Status) []Record {
	var out []Record
	for _, rec := range records {
		if rec.Status() == status {
			out = append(out, rec)
		}
	}
	return out
}
