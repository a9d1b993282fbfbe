package pagination

const (
	// DefaultSize is the product page size used by the storefront listing.
	DefaultSize = 12
	// MaxSize caps how many rows a single page may request.
	MaxSize = 100
)

// Params holds zero-based page/size pagination inputs.
type Params struct {
	Page int
	Size int
}

// Normalize clamps the page to >= 0 and the size to (0, MaxSize].
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	p.Size = NormalizeSize(p.Size)
	return p
}

// NormalizeSize enforces the default and maximum page sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Offset returns the index of the first row on the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return n.Page * n.Size
}

// Window returns the [start, end) bounds of the page within total rows.
func (p Params) Window(total int) (int, int) {
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Normalize().Size
	if end > total {
		end = total
	}
	return start, end
}

// Page is a slice of results plus the paging inputs that produced it.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	HasNext bool `json:"hasNext"`
}

// NewPage builds a page; a full page is assumed to have a successor.
func NewPage[T any](items []T, p Params) Page[T] {
	n := p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: n.Page, Size: n.Size, HasNext: len(items) == n.Size}
}
