package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/namesim/internal/indexer"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/search"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Results: []models.SimilarityResult{
			{ID: "a", Name: "Acme Stores", Score: 1.0, Rank: 1},
			{ID: "c", Name: "Acme Store", Score: 0.99, Rank: 2},
		},
		Total:     2,
		Skipped:   1,
		Threshold: 0.95,
		Scoring:   "cosine",
		QueryTime: 3,
		Query:     "Acme Stores",
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "json": OutputJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded.Results) != 2 || decoded.Results[1].Name != "Acme Store" || decoded.Skipped != 1 {
		t.Errorf("unexpected decoded response: %+v", decoded)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	resp := sampleResponse()
	resp.Lexical = []models.LexicalMatch{{ID: "a", Name: "Acme Stores", Score: 2.1, Distance: 0}}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 2 names above 0.9500 (cosine)", "Skipped 1", "RANK", "0.9900", "Acme Store", "Lexical matches"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.SearchResponse{Threshold: 0.95, Scoring: "dot"}
	if err := WriteSearchResults(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "RANK") {
		t.Errorf("empty result should not print a table:\n%s", buf.String())
	}
}

func TestWriteLookup_didYouMean(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLookup(&buf, &search.LookupResult{DidYouMean: "dollar tree"}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Did you mean: dollar tree") {
		t.Errorf("missing suggestion:\n%s", buf.String())
	}
}

func TestWriteVectorizeReport(t *testing.T) {
	var buf bytes.Buffer
	report := &indexer.VectorizeReport{Pending: 5, Embedded: 4, Skipped: 1, Model: "mock", Duration: 1500 * time.Millisecond}
	if err := WriteVectorizeReport(&buf, report, OutputText); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "Vectorized 4 of 5") || !strings.Contains(got, "1 skipped") {
		t.Errorf("unexpected report text: %q", got)
	}
}
