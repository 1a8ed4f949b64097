package model

import "time"

// Movie represents a catalog entry as stored in the movies collection.
// ID is assigned by the store on insert and never changes afterwards.
// CreatedAt is written once; UpdatedAt is refreshed on every successful
// update, so CreatedAt <= UpdatedAt always holds.
//
// Fields:
//  ID          – store-assigned opaque identifier (hex ObjectID or UUID).
//  Title       – trimmed, non-empty title.
//  Description – trimmed, non-empty synopsis.
//  ReleaseYear – release year, 1800 < year <= current year + 10.
//  Genre       – trimmed, non-empty genre label (may list several, comma separated).
//  Director    – optional, empty string when unknown.
//  Rating      – score in [0, 10].
//  CreatedAt   – creation timestamp (UTC).
//  UpdatedAt   – last update timestamp (UTC).
type Movie struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ReleaseYear int       `json:"release_year"`
	Genre       string    `json:"genre"`
	Director    string    `json:"director"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MovieInput is a normalized, validated payload for a movie that has not
// been persisted yet.  Only the validation package should construct it from
// untrusted input.
type MovieInput struct {
	Title       string
	Description string
	ReleaseYear int
	Genre       string
	Director    string
	Rating      float64
}

// NewMovie builds an unsaved Movie from the input, stamping both timestamps
// with now.
func (in MovieInput) NewMovie(now time.Time) *Movie {
	return &Movie{
		Title:       in.Title,
		Description: in.Description,
		ReleaseYear: in.ReleaseYear,
		Genre:       in.Genre,
		Director:    in.Director,
		Rating:      in.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MoviePatch carries the fields of a partial update.  A nil pointer means
// the field was not supplied and must be left untouched.
type MoviePatch struct {
	Title       *string
	Description *string
	ReleaseYear *int
	Genre       *string
	Director    *string
	Rating      *float64
}

// IsEmpty reports whether the patch supplies no field at all.
func (p MoviePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ReleaseYear == nil &&
		p.Genre == nil && p.Director == nil && p.Rating == nil
}

// Apply merges the supplied fields into m and refreshes UpdatedAt.
// CreatedAt and ID are never touched.
func (p MoviePatch) Apply(m *Movie, now time.Time) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.ReleaseYear != nil {
		m.ReleaseYear = *p.ReleaseYear
	}
	if p.Genre != nil {
		m.Genre = *p.Genre
	}
	if p.Director != nil {
		m.Director = *p.Director
	}
	if p.Rating != nil {
		m.Rating = *p.Rating
	}
	m.UpdatedAt = now
}
