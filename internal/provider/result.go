package provider

import "github.com/heartmarshall/quotespell/internal/domain"

// TrackQuery asks a catalog for one page of tracks whose title matches Title.
// A non-empty Cursor continues a previous search and takes precedence over
// Title and Limit.
type TrackQuery struct {
	Title  string
	Limit  int
	Cursor string
}

// TrackPage is one page of catalog search results.
type TrackPage struct {
	Items  []domain.Track
	Offset int
	Total  int
	// Next is the cursor of the following page; empty on the last page.
	Next string
}

// HasNext reports whether the catalog announced another page.
func (p *TrackPage) HasNext() bool {
	return p.Next != ""
}
