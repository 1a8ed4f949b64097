// Package seed holds the sample catalog loaded on first start when
// SEED_SAMPLE_DATA is enabled.
package seed

import (
	"encoding/json"
	"strconv"

	"github.com/iliyamo/movie-catalog/internal/validation"
)

type sample struct {
	title       string
	description string
	genre       string
	director    string
	year        int
	rating      string
}

var samples = []sample{
	{"The Shawshank Redemption", "Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency.", "Drama", "Frank Darabont", 1994, "9.3"},
	{"The Godfather", "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.", "Crime, Drama", "Francis Ford Coppola", 1972, "9.2"},
	{"The Dark Knight", "When the menace known as The Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest psychological and physical tests.", "Action, Crime, Drama", "Christopher Nolan", 2008, "9.0"},
	{"Pulp Fiction", "The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption.", "Crime, Drama", "Quentin Tarantino", 1994, "8.9"},
	{"Inception", "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea.", "Action, Sci-Fi, Thriller", "Christopher Nolan", 2010, "8.8"},
	{"The Matrix", "A computer hacker learns from mysterious rebels about the true nature of his reality and his role in the war against its controllers.", "Action, Sci-Fi", "Lana Wachowski", 1999, "8.7"},
}

// SampleMovies returns the sample catalog as raw inputs, shaped exactly like
// decoded request bodies so they pass through normal validation.
func SampleMovies() []validation.RawInput {
	out := make([]validation.RawInput, 0, len(samples))
	for _, s := range samples {
		out = append(out, validation.RawInput{
			validation.FieldTitle:       s.title,
			validation.FieldDescription: s.description,
			validation.FieldReleaseYear: json.Number(strconv.Itoa(s.year)),
			validation.FieldGenre:       s.genre,
			validation.FieldDirector:    s.director,
			validation.FieldRating:      json.Number(s.rating),
		})
	}
	return out
}
