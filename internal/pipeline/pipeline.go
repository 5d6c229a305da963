// Package pipeline reads and writes plan/actual record streams in JSONL
// format, the canonical pipe format between yojitsu commands.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// maxLine bounds a single JSONL line.
const maxLine = 1024 * 1024

// ReadRecords reads JSONL records from r. Blank lines and lines starting
// with "//" are ignored. A line may also hold a JSON array of records.
//
// Lines that fail to decode are collected into a *util.MultiError; the
// records of every other line are still returned. An I/O error aborts the
// read.
func ReadRecords(r io.Reader) ([]model.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	recs := []model.Record{}
	var errs util.MultiError
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			var batch []model.Record
			if err := json.Unmarshal([]byte(line), &batch); err != nil {
				errs.Add(fmt.Errorf("line %d: invalid JSON array: %w", lineNum, err))
				continue
			}
			recs = append(recs, batch...)
			continue
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			errs.Add(fmt.Errorf("line %d: invalid JSON: %w", lineNum, err))
			continue
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return recs, errs.Err()
}

// ReadFile reads records from path; "-" means stdin.
func ReadFile(path string) ([]model.Record, error) {
	if path == "" || path == "-" {
		return ReadRecords(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	recs, err := ReadRecords(f)
	if err != nil {
		return recs, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// WriteJSONL writes records as JSONL to w, one record per line.
func WriteJSONL(w io.Writer, recs []model.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// StdinIsPipe reports whether stdin is redirected from a file or pipe.
func StdinIsPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}
