// Package validation converts untrusted request payloads into normalized
// movie values.  It is the only place where loosely typed input becomes a
// model.MovieInput or model.MoviePatch, and it never touches the store.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// Field names accepted from clients.  Anything else in the input is ignored.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldReleaseYear = "release_year"
	FieldGenre       = "genre"
	FieldDirector    = "director"
	FieldRating      = "rating"
)

const (
	minReleaseYear = 1800 // exclusive
	maxYearsAhead  = 10
	minRating      = 0.0
	maxRating      = 10.0
)

// RawInput is a decoded JSON object whose values have not been checked.
// Decoders should use json.Decoder.UseNumber so numbers arrive as json.Number.
type RawInput map[string]any

// FieldErrors maps a field name to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator holds the clock used for the release year upper bound.
type Validator struct {
	Now func() time.Time
}

// New returns a Validator using the wall clock.
func New() *Validator {
	return &Validator{Now: time.Now}
}

func (v *Validator) maxYear() int {
	now := time.Now
	if v != nil && v.Now != nil {
		now = v.Now
	}
	return now().UTC().Year() + maxYearsAhead
}

// ValidateCreate checks a full creation payload.  All failing fields are
// reported together; the returned FieldErrors is nil when the input is valid.
func (v *Validator) ValidateCreate(in RawInput) (model.MovieInput, FieldErrors) {
	errs := FieldErrors{}
	var out model.MovieInput

	out.Title = requiredText(in, FieldTitle, "Title", errs)
	out.Description = requiredText(in, FieldDescription, "Description", errs)
	out.Genre = requiredText(in, FieldGenre, "Genre", errs)

	if raw, ok := present(in, FieldDirector); ok {
		if s, ok := raw.(string); ok {
			out.Director = strings.TrimSpace(s)
		} else {
			errs[FieldDirector] = "Director must be a string"
		}
	}

	if raw, ok := present(in, FieldReleaseYear); !ok {
		errs[FieldReleaseYear] = "Release year is required"
	} else if year, msg := v.releaseYear(raw); msg != "" {
		errs[FieldReleaseYear] = msg
	} else {
		out.ReleaseYear = year
	}

	if raw, ok := present(in, FieldRating); !ok {
		errs[FieldRating] = "Rating is required"
	} else if r, msg := rating(raw); msg != "" {
		errs[FieldRating] = msg
	} else {
		out.Rating = r
	}

	if len(errs) > 0 {
		return model.MovieInput{}, errs
	}
	return out, nil
}

// ValidatePatch checks only the fields present in a partial update.  Each
// field is validated on its own; stored values are not consulted.  A field
// set to JSON null counts as absent.
func (v *Validator) ValidatePatch(in RawInput) (model.MoviePatch, FieldErrors) {
	errs := FieldErrors{}
	var p model.MoviePatch

	p.Title = optionalText(in, FieldTitle, "Title", errs)
	p.Description = optionalText(in, FieldDescription, "Description", errs)
	p.Genre = optionalText(in, FieldGenre, "Genre", errs)

	if raw, ok := present(in, FieldDirector); ok {
		if s, ok := raw.(string); ok {
			d := strings.TrimSpace(s)
			p.Director = &d
		} else {
			errs[FieldDirector] = "Director must be a string"
		}
	}

	if raw, ok := present(in, FieldReleaseYear); ok {
		if year, msg := v.releaseYear(raw); msg != "" {
			errs[FieldReleaseYear] = msg
		} else {
			p.ReleaseYear = &year
		}
	}

	if raw, ok := present(in, FieldRating); ok {
		if r, msg := rating(raw); msg != "" {
			errs[FieldRating] = msg
		} else {
			p.Rating = &r
		}
	}

	if len(errs) > 0 {
		return model.MoviePatch{}, errs
	}
	return p, nil
}

// present returns the raw value for key, treating a JSON null as missing.
func present(in RawInput, key string) (any, bool) {
	v, ok := in[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func requiredText(in RawInput, key, label string, errs FieldErrors) string {
	raw, ok := present(in, key)
	if !ok {
		errs[key] = label + " is required"
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		errs[key] = label + " must be a string"
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		errs[key] = label + " is required"
	}
	return s
}

func optionalText(in RawInput, key, label string, errs FieldErrors) *string {
	raw, ok := present(in, key)
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		errs[key] = label + " must be a string"
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		errs[key] = label + " cannot be empty"
		return nil
	}
	return &s
}

func (v *Validator) releaseYear(raw any) (int, string) {
	year, ok := toInt(raw)
	if !ok {
		return 0, "Release year must be a valid number"
	}
	upper := v.maxYear()
	if year <= minReleaseYear || year > upper {
		return 0, fmt.Sprintf("Release year must be between %d and %d", minReleaseYear+1, upper)
	}
	return year, ""
}

func rating(raw any) (float64, string) {
	r, ok := toFloat(raw)
	if !ok {
		return 0, "Rating must be a valid number"
	}
	if r < minRating || r > maxRating {
		return 0, "Rating must be between 0 and 10"
	}
	return r, ""
}

// toInt accepts integral JSON numbers and numeric strings.
func toInt(raw any) (int, bool) {
	switch t := raw.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case float64:
		return floatToInt(t)
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func toFloat(raw any) (float64, bool) {
	var f float64
	switch t := raw.(type) {
	case json.Number:
		v, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = v
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Decode reads a JSON object into a RawInput preserving number precision.
// A JSON null decodes to a nil map; a non-object body is an error.
func Decode(data []byte) (RawInput, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var in RawInput
	if err := dec.Decode(&in); err != nil {
		return nil, err
	}
	return in, nil
}
