package models

import "fmt"

// Namespace scopes every table operation to a catalog and schema.
type Namespace struct {
	Catalog string `json:"catalog" yaml:"catalog"`
	Schema  string `json:"schema" yaml:"schema"`
}

// String returns catalog.schema.
func (n Namespace) String() string {
	return fmt.Sprintf("%s.%s", n.Catalog, n.Schema)
}

// IsZero reports whether neither part is set.
func (n Namespace) IsZero() bool {
	return n.Catalog == "" && n.Schema == ""
}
