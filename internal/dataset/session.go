package dataset

import (
	"errors"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"github.com/KaramelBytes/serpdiff/internal/filter"
)

var (
	// ErrNoDataset is returned when a query is applied before any load.
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrStaleGeneration is returned when the store moved on since the last Apply.
	ErrStaleGeneration = errors.New("dataset replaced since query was applied")
	// ErrNoQuery is returned when paging before any query was applied.
	ErrNoQuery = errors.New("no query applied")
)

// Item is a record together with its canonical index.
type Item struct {
	Index int `json:"index"`
	*comparison.Record
}

// Page is one batch of revealed records.
type Page struct {
	Generation uint64 `json:"generation"`
	Items      []Item `json:"items"`
	Loaded     int    `json:"loaded"`
	Total      int    `json:"total"`
	Done       bool   `json:"done"`
}

// Session is the "last applied query" state of one client. Every result it
// hands out belongs to the single generation the query was applied against.
// A Session is not safe for concurrent use.
type Session struct {
	store    *Store
	pageSize int

	data    *Dataset
	query   filter.Query
	indices []int
	pager   *filter.Pager
	summary filter.Summary
}

// NewSession binds a session to store. A non-positive pageSize uses
// filter.DefaultPageSize.
func NewSession(store *Store, pageSize int) *Session {
	return &Session{store: store, pageSize: pageSize}
}

// Apply evaluates q against the current dataset, resets paging and
// recomputes the summary. Applying the same query again also resets paging.
// It returns the first page.
func (s *Session) Apply(q filter.Query) (Page, error) {
	d := s.store.Current()
	if d == nil {
		return Page{}, ErrNoDataset
	}
	s.data = d
	s.query = q
	s.indices = filter.Apply(d.Records, q)
	s.pager = filter.NewPager(s.indices, s.pageSize)
	s.summary = filter.Aggregate(d.Records, s.indices)
	return s.nextPage(), nil
}

// Refresh re-applies the last query against the current dataset.
func (s *Session) Refresh() (Page, error) {
	return s.Apply(s.query)
}

// Next reveals the next page of the last applied query. At the end it
// returns an empty page with Done set.
func (s *Session) Next() (Page, error) {
	if err := s.check(); err != nil {
		return Page{}, err
	}
	return s.nextPage(), nil
}

// Summary returns the aggregate over the full filtered set.
func (s *Session) Summary() (filter.Summary, error) {
	if err := s.check(); err != nil {
		return filter.Summary{}, err
	}
	return s.summary, nil
}

// AppliedSummary returns the summary computed by the last Apply without
// checking the store. It always belongs to the same generation as the pages
// handed out since, even if the store has moved on.
func (s *Session) AppliedSummary() filter.Summary { return s.summary }

// Matches returns every matching canonical index, revealed or not.
func (s *Session) Matches() ([]int, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.indices, nil
}

// Query returns the last applied query.
func (s *Session) Query() filter.Query { return s.query }

// Dataset returns the dataset the last query was applied against.
func (s *Session) Dataset() *Dataset { return s.data }

func (s *Session) check() error {
	if s.data == nil {
		if s.store.Current() == nil {
			return ErrNoDataset
		}
		return ErrNoQuery
	}
	if s.store.Generation() != s.data.Generation {
		return ErrStaleGeneration
	}
	return nil
}

func (s *Session) nextPage() Page {
	idx := s.pager.Next()
	items := make([]Item, len(idx))
	for i, j := range idx {
		items[i] = Item{Index: j, Record: &s.data.Records[j]}
	}
	return Page{
		Generation: s.data.Generation,
		Items:      items,
		Loaded:     s.pager.Loaded(),
		Total:      s.pager.Total(),
		Done:       s.pager.Done(),
	}
}
