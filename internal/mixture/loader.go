package mixture

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// DefaultTokenField is the manifest key holding per-dataset token counts.
// The key name follows the tokenizer used to produce the counts, so it is
// configurable rather than part of the record contract.
const DefaultTokenField = "gemma-3-tok"

// LoadRecords reads a line-delimited JSON manifest in one pass. Every line
// must carry string keys "lang", "dataset", "path" and an integer count under
// tokenField (DefaultTokenField when empty). Blank lines are skipped.
//
// An unreadable file or a line that is not valid JSON yields a *SourceError;
// a line that parses but violates the record contract yields a
// *ValidationError. Either way no records are returned.
func LoadRecords(path, tokenField string) ([]Record, error) {
	if tokenField == "" {
		tokenField = DefaultTokenField
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	// Manifest lines can carry long dataset paths; allow generous lines.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			return nil, &SourceError{Path: path, Line: line, Err: err}
		}
		rec, err := parseRecord(entry, tokenField, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	return records, nil
}

func parseRecord(entry map[string]any, tokenField string, line int) (Record, error) {
	lang, _ := entry["lang"].(string)
	dataset, _ := entry["dataset"].(string)
	path, _ := entry["path"].(string)
	if lang == "" || dataset == "" || path == "" {
		return Record{}, &ValidationError{Reason: fmt.Sprintf(
			"record at line %d: lang, dataset, path and %s are required", line, tokenField)}
	}
	num, ok := entry[tokenField].(json.Number)
	if !ok {
		return Record{}, &ValidationError{Reason: fmt.Sprintf(
			"record at line %d: lang, dataset, path and %s are required", line, tokenField)}
	}
	// Integer counts only: "12.0" and exponent forms are rejected.
	tokens, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return Record{}, &ValidationError{Reason: fmt.Sprintf(
			"record at line %d: %s must be an integer, got %s", line, tokenField, num)}
	}
	if tokens < 0 {
		return Record{}, &ValidationError{Reason: fmt.Sprintf(
			"record at line %d: %s must be non-negative, got %d", line, tokenField, tokens)}
	}
	return Record{Lang: lang, Dataset: dataset, Path: path, Tokens: tokens}, nil
}
