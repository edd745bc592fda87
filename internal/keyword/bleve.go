package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/namesim/internal/models"
)

const (
	nameField      = "name"
	namespaceField = "namespace"
	defaultFuzz    = 1
	idPageSize     = 1000
)

type nameDoc struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// BleveIndex implements NameIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func nameMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer lowercases and tokenizes without stemming, so "Foods"
	// only matches "foods".
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = standard.Name
	nameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(nameField, nameFieldMapping)

	nsFieldMapping := bleve.NewTextFieldMapping()
	nsFieldMapping.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt(namespaceField, nsFieldMapping)

	im.AddDocumentMapping("name", docMapping)
	im.DefaultType = "name"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve name index at path. An existing index
// is reused; remove the directory after changing the mapping.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, nameMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemBleveIndex creates an in-memory name index.
func NewMemBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(nameMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces one name.
func (b *BleveIndex) Index(ctx context.Context, ns models.Namespace, rec *models.NameRecord) error {
	return b.index.Index(rec.ID, nameDoc{Name: rec.Name, Namespace: ns.String()})
}

// IndexBatch adds or replaces many names in one Bleve batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, ns models.Namespace, recs []*models.NameRecord) error {
	batch := b.index.NewBatch()
	for _, rec := range recs {
		if err := batch.Index(rec.ID, nameDoc{Name: rec.Name, Namespace: ns.String()}); err != nil {
			return fmt.Errorf("batch index %s: %w", rec.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Replace indexes recs and deletes every other document of ns in one batch,
// so names dropped from the store stop matching.
func (b *BleveIndex) Replace(ctx context.Context, ns models.Namespace, recs []*models.NameRecord) error {
	existing, err := b.namespaceIDs(ctx, ns)
	if err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(recs))
	batch := b.index.NewBatch()
	for _, rec := range recs {
		keep[rec.ID] = struct{}{}
		if err := batch.Index(rec.ID, nameDoc{Name: rec.Name, Namespace: ns.String()}); err != nil {
			return fmt.Errorf("batch index %s: %w", rec.ID, err)
		}
	}
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// namespaceIDs lists the IDs of every document indexed for ns.
func (b *BleveIndex) namespaceIDs(ctx context.Context, ns models.Namespace) ([]string, error) {
	q := bleve.NewTermQuery(ns.String())
	q.SetField(namespaceField)
	var ids []string
	for from := 0; ; from += idPageSize {
		req := bleve.NewSearchRequestOptions(q, idPageSize, from, false)
		req.SortBy([]string{"_id"})
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list namespace documents: %w", err)
		}
		for _, hit := range results.Hits {
			ids = append(ids, hit.ID)
		}
		if len(results.Hits) < idPageSize {
			return ids, nil
		}
	}
}

// Search matches query against names in ns. Any term may match; names
// matching more terms score higher.
func (b *BleveIndex) Search(ctx context.Context, ns models.Namespace, query string, limit int, opts *SearchOptions) ([]models.LexicalMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	var nameQuery blevequery.Query
	if opts != nil && opts.Fuzzy {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = defaultFuzz
		}
		nameQuery = buildFuzzyQuery(query, fuzziness)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(nameField)
		nameQuery = mq
	}
	nsQuery := bleve.NewTermQuery(ns.String())
	nsQuery.SetField(namespaceField)

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(nameQuery, nsQuery))
	req.Size = limit
	req.Fields = []string{nameField}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	lowered := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.LexicalMatch, 0, len(results.Hits))
	for _, hit := range results.Hits {
		name, _ := hit.Fields[nameField].(string)
		out = append(out, models.LexicalMatch{
			ID:       hit.ID,
			Name:     name,
			Score:    hit.Score,
			Distance: DamerauLevenshteinDistance(lowered, strings.ToLower(name)),
		})
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery ORs one FuzzyQuery per term over the name field.
func buildFuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(nameField)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(nameField)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a name from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// GetAllTerms returns every term in the name field dictionary.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	dict, err := b.index.FieldDict(nameField)
	if err != nil {
		return nil, fmt.Errorf("name field dictionary: %w", err)
	}
	defer dict.Close()
	var terms []string
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return terms, nil
		}
		terms = append(terms, entry.Term)
	}
}

// GetTermFrequency returns how many names contain term.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	q := bleve.NewTermQuery(strings.ToLower(term))
	q.SetField(nameField)
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}
