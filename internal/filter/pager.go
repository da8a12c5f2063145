package filter

// DefaultPageSize is the number of records revealed per page.
const DefaultPageSize = 50

// Pager reveals a filtered index sequence a page at a time. A Pager belongs to
// one applied query; applying a query again means creating a new Pager.
type Pager struct {
	indices  []int
	pageSize int
	loaded   int
}

// NewPager starts a cursor at zero over indices. A non-positive pageSize
// falls back to DefaultPageSize.
func NewPager(indices []int, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{indices: indices, pageSize: pageSize}
}

// Next reveals up to one page of further indices. At the end it returns an
// empty slice.
func (p *Pager) Next() []int {
	end := p.loaded + p.pageSize
	if end > len(p.indices) {
		end = len(p.indices)
	}
	page := p.indices[p.loaded:end:end]
	p.loaded = end
	return page
}

// Loaded is the number of indices revealed so far.
func (p *Pager) Loaded() int { return p.loaded }

// Total is the size of the filtered sequence.
func (p *Pager) Total() int { return len(p.indices) }

// Remaining is the number of indices not yet revealed.
func (p *Pager) Remaining() int { return len(p.indices) - p.loaded }

// Done reports whether every index has been revealed.
func (p *Pager) Done() bool { return p.loaded >= len(p.indices) }

// PageSize returns the configured page size.
func (p *Pager) PageSize() int { return p.pageSize }

// Revealed returns every index revealed so far.
func (p *Pager) Revealed() []int { return p.indices[:p.loaded:p.loaded] }
