package domain

import (
	"time"

	"github.com/google/uuid"
)

// Artist is a performer credited on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a catalog item matched to a candidate title.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
}

// Spell is a recorded outcome of spelling one quote.
type Spell struct {
	ID           uuid.UUID
	Quote        string
	Phrase       string
	Combinations int
	Found        bool
	Playlist     []Track
	CreatedAt    time.Time
}

// SpellFilter narrows a history listing.
type SpellFilter struct {
	Found  *bool
	Limit  int
	Offset int
}
