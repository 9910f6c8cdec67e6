// Package plan records the file operations a reconciliation run decides on
// and executes them later, all copies before any delete.
package plan

// Copy copies Source over Destination. Paths are relative to the
// configuration root.
type Copy struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Plan is an insertion-ordered, duplicate-free list of copies and deletes.
// The zero value is ready to use.
type Plan struct {
	Copies  []Copy   `json:"copies"`
	Deletes []string `json:"deletes"`

	seenCopies  map[Copy]struct{}
	seenDeletes map[string]struct{}
}

// New returns an empty plan.
func New() *Plan {
	return &Plan{}
}

// Copy queues a copy. Queuing the same copy twice records it once.
func (p *Plan) Copy(src, dst string) {
	c := Copy{Source: src, Destination: dst}
	if p.seenCopies == nil {
		p.seenCopies = make(map[Copy]struct{})
	}
	if _, ok := p.seenCopies[c]; ok {
		return
	}
	p.seenCopies[c] = struct{}{}
	p.Copies = append(p.Copies, c)
}

// Delete queues a delete. Queuing the same path twice records it once.
func (p *Plan) Delete(path string) {
	if p.seenDeletes == nil {
		p.seenDeletes = make(map[string]struct{})
	}
	if _, ok := p.seenDeletes[path]; ok {
		return
	}
	p.seenDeletes[path] = struct{}{}
	p.Deletes = append(p.Deletes, path)
}

// Merge appends other's operations in order, skipping ones already queued.
func (p *Plan) Merge(other *Plan) {
	if other == nil {
		return
	}
	for _, c := range other.Copies {
		p.Copy(c.Source, c.Destination)
	}
	for _, d := range other.Deletes {
		p.Delete(d)
	}
}

// Len returns the number of queued operations.
func (p *Plan) Len() int {
	return len(p.Copies) + len(p.Deletes)
}

// Empty reports whether nothing is queued.
func (p *Plan) Empty() bool {
	return p.Len() == 0
}
