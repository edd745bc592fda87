package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a known name term close to a query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// Suggester proposes corrections for query terms that match no indexed name.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
	maxResults  int

	mu    sync.RWMutex
	terms map[string]struct{}
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the largest edit distance a suggestion may have (default 2).
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxSuggestions caps suggestions per term (default 5).
func WithMaxSuggestions(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// NewSuggester creates a Suggester over dict. Terms are loaded lazily.
func NewSuggester(dict TermDictionary, opts ...SuggesterOption) *Suggester {
	s := &Suggester{dict: dict, maxDistance: 2, maxResults: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh reloads the term set. Call it after names are added or removed.
func (s *Suggester) Refresh() error {
	terms, err := s.dict.GetAllTerms()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	s.mu.Lock()
	s.terms = set
	s.mu.Unlock()
	return nil
}

func (s *Suggester) termSet() (map[string]struct{}, error) {
	s.mu.RLock()
	set := s.terms
	s.mu.RUnlock()
	if set != nil {
		return set, nil
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms, nil
}

// Suggest returns known terms within the max edit distance of term, closest
// and most frequent first. A term that is itself known yields nothing.
func (s *Suggester) Suggest(term string) ([]Suggestion, error) {
	set, err := s.termSet()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	if _, ok := set[term]; ok {
		return nil, nil
	}
	var out []Suggestion
	for known := range set {
		diff := len([]rune(known)) - len([]rune(term))
		if diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := DamerauLevenshteinDistance(term, known)
		if d > s.maxDistance {
			continue
		}
		freq, err := s.dict.GetTermFrequency(known)
		if err != nil || freq < 1 {
			continue
		}
		out = append(out, Suggestion{Term: known, Distance: d, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxResults {
		out = out[:s.maxResults]
	}
	return out, nil
}

// Correct replaces every unknown term of query with its best suggestion.
// It reports false when nothing changed.
func (s *Suggester) Correct(query string) (string, bool, error) {
	terms := tokenizeQuery(query)
	changed := false
	for i, term := range terms {
		sugs, err := s.Suggest(term)
		if err != nil {
			return query, false, err
		}
		if len(sugs) > 0 {
			terms[i] = sugs[0].Term
			changed = true
		}
	}
	if !changed {
		return query, false, nil
	}
	return strings.Join(terms, " "), true, nil
}
