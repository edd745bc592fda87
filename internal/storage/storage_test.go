package storage

import (
	"errors"
	"testing"

	"github.com/hyperjump/namesim/internal/models"
)

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		ns      models.Namespace
		wantErr bool
	}{
		{models.Namespace{Catalog: "demo", Schema: "retail"}, false},
		{models.Namespace{Catalog: "c_1", Schema: "S_2"}, false},
		{models.Namespace{Catalog: "_c1", Schema: "S_2"}, true},
		{models.Namespace{Catalog: "", Schema: "retail"}, true},
		{models.Namespace{Catalog: "demo", Schema: "1retail"}, true},
		{models.Namespace{Catalog: "demo", Schema: "retail; DROP TABLE x"}, true},
		{models.Namespace{Catalog: `de"mo`, Schema: "retail"}, true},
		{models.Namespace{Catalog: "demo.x", Schema: "retail"}, true},
		{models.Namespace{Catalog: "a__b", Schema: "c"}, true},
		{models.Namespace{Catalog: "a", Schema: "b__c"}, true},
		{models.Namespace{Catalog: "a_", Schema: "b"}, true},
		{models.Namespace{Catalog: "a", Schema: "_b"}, true},
	}
	for _, tt := range tests {
		err := ValidateNamespace(tt.ns)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateNamespace(%v) err=%v, wantErr=%v", tt.ns, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("expected ErrInvalidIdentifier, got %v", err)
		}
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent("names"); got != `"names"` {
		t.Errorf("got %s", got)
	}
	if got := quoteIdent(`a"b`); got != `"a""b"` {
		t.Errorf("got %s", got)
	}
}
