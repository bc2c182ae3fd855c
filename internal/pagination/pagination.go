package pagination

import "strconv"

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Params are the page/limit query parameters of a list endpoint.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// FromStrings parses raw query values, falling back to page 1 / limit 10
// and capping limit at 50.
func FromStrings(page, limit string) Params {
	p := Params{Page: 1, Limit: defaultLimit}
	if page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}
	if limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 {
			if v > maxLimit {
				v = maxLimit
			}
			p.Limit = v
		}
	}
	return p
}

func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

// Envelope is the standard pagination block of a list response.
type Envelope struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// NewEnvelope computes the page count for a total row count.
func NewEnvelope(total int64, p Params) Envelope {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Envelope{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
