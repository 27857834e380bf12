package mixture_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vitiugin/ml-dist-gen/internal/mixture"
)

func writeManifest(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counts.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadRecords(t *testing.T) {
	path := writeManifest(t,
		`{"lang":"eng","dataset":"fineweb","path":"fineweb/eng","gemma-3-tok":1234}`,
		``,
		`{"lang":"fra","dataset":"hplt","path":"hplt/fra","gemma-3-tok":0,"extra":"ignored"}`,
	)
	recs, err := mixture.LoadRecords(path, "")
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	want := []mixture.Record{
		{Lang: "eng", Dataset: "fineweb", Path: "fineweb/eng", Tokens: 1234},
		{Lang: "fra", Dataset: "hplt", Path: "hplt/fra", Tokens: 0},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, recs[i], want[i])
		}
	}
}

func TestLoadRecordsCustomTokenField(t *testing.T) {
	path := writeManifest(t,
		`{"lang":"eng","dataset":"fineweb","path":"fineweb/eng","llama-tok":42}`,
	)
	recs, err := mixture.LoadRecords(path, "llama-tok")
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if recs[0].Tokens != 42 {
		t.Fatalf("Tokens = %d, want 42", recs[0].Tokens)
	}
}

func TestLoadRecordsMissingFile(t *testing.T) {
	_, err := mixture.LoadRecords(filepath.Join(t.TempDir(), "nope.jsonl"), "")
	var serr *mixture.SourceError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *SourceError", err)
	}
}

func TestLoadRecordsMalformedLine(t *testing.T) {
	path := writeManifest(t,
		`{"lang":"eng","dataset":"fineweb","path":"fineweb/eng","gemma-3-tok":1}`,
		`{not json`,
	)
	_, err := mixture.LoadRecords(path, "")
	var serr *mixture.SourceError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *SourceError", err)
	}
	if serr.Line != 2 {
		t.Fatalf("Line = %d, want 2", serr.Line)
	}
}

func TestLoadRecordsInvalidRecords(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"missing path", `{"lang":"eng","dataset":"A","gemma-3-tok":1}`},
		{"empty lang", `{"lang":"","dataset":"A","path":"a","gemma-3-tok":1}`},
		{"missing tokens", `{"lang":"eng","dataset":"A","path":"a"}`},
		{"float tokens", `{"lang":"eng","dataset":"A","path":"a","gemma-3-tok":1.5}`},
		{"string tokens", `{"lang":"eng","dataset":"A","path":"a","gemma-3-tok":"12"}`},
		{"negative tokens", `{"lang":"eng","dataset":"A","path":"a","gemma-3-tok":-3}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := mixture.LoadRecords(writeManifest(t, c.line), "")
			var verr *mixture.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
		})
	}
}
