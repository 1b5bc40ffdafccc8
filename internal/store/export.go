package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ExportRuns writes every run as JSONL, newest first.
func ExportRuns(ctx context.Context, s Store, w io.Writer) (int, error) {
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for i, r := range runs {
		if err := enc.Encode(r); err != nil {
			return i, fmt.Errorf("failed to encode run %s: %w", r.ID, err)
		}
	}
	return len(runs), nil
}

// ImportRuns reads JSONL run reports and records each one. Blank lines are
// skipped; a malformed line aborts the import.
func ImportRuns(ctx context.Context, s Store, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line length

	n, lineNum := 0, 0
	for sc.Scan() {
		lineNum++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := s.RecordRun(ctx, run); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNum, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("failed to read runs: %w", err)
	}
	return n, nil
}
