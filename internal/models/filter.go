package models

// QuestionFilter narrows a question listing. Nil pointers mean "any".
type QuestionFilter struct {
	Status          *Status
	CategoryID      *int64
	AuthorID        *int64
	Search          string
	Tag             string
	HasAccepted     *bool
	HasActiveBounty *bool
	Sort            SortKey
}

// Pagination defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based offset page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// QuestionPage is one page of a question listing.
type QuestionPage struct {
	Items    []*Question `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
