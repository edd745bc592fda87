package models

import (
	"errors"
	"math"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name    string
		query   *SearchQuery
		wantErr bool
	}{
		{"empty query", &SearchQuery{}, true},
		{"text query", &SearchQuery{Text: "acme"}, false},
		{"vector query", &SearchQuery{Vector: []float32{1, 0}}, false},
		{"caps limit at 100", &SearchQuery{Text: "x", Limit: 500}, false},
		{"nan threshold", &SearchQuery{Text: "x", Threshold: &nan}, true},
		{"unknown scoring", &SearchQuery{Text: "x", Scoring: "manhattan"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuery) {
					t.Errorf("error %v does not wrap ErrInvalidQuery", err)
				}
				return
			}
			if tt.query.Limit <= 0 || tt.query.Limit > 100 {
				t.Errorf("limit not normalized: %d", tt.query.Limit)
			}
			if tt.query.Threshold == nil || *tt.query.Threshold != DefaultThreshold {
				t.Errorf("expected default threshold, got %v", tt.query.Threshold)
			}
		})
	}
}

func TestSearchQuery_KeepsExplicitThreshold(t *testing.T) {
	zero := 0.0
	q := &SearchQuery{Text: "x", Threshold: &zero}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.ThresholdValue() != 0 {
		t.Errorf("explicit zero threshold overwritten: %v", q.ThresholdValue())
	}
}

func TestNameRecord_HasEmbedding(t *testing.T) {
	r := &NameRecord{Name: "Acme"}
	if r.HasEmbedding() {
		t.Error("record without embedding reported as embedded")
	}
	r.Embedding = []float32{0.1}
	if !r.HasEmbedding() {
		t.Error("record with embedding reported as pending")
	}
}
