package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/movie-catalog/internal/model"
)

func ptr[T any](v T) *T { return &v }

// compileMongoRegex turns a bson.Regex into the equivalent Go regexp, which
// shares the PCRE syntax subset QuoteMeta produces.
func compileMongoRegex(t *testing.T, r bson.Regex) *regexp.Regexp {
	t.Helper()
	prefix := ""
	if r.Options == "i" {
		prefix = "(?i)"
	}
	return regexp.MustCompile(prefix + r.Pattern)
}

func TestMongoUpdateDocSetsOnlySuppliedFields(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := mongoUpdateDoc(model.MoviePatch{Rating: ptr(9.0), Director: ptr("")}, now)

	require.Len(t, doc, 1)
	assert.Equal(t, "$set", doc[0].Key)
	set, ok := doc[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, bson.D{
		{Key: "director", Value: ""},
		{Key: "rating", Value: 9.0},
		{Key: "updated_at", Value: now},
	}, set)
}

func TestMongoUpdateDocAllFields(t *testing.T) {
	now := time.Now().UTC()
	doc := mongoUpdateDoc(model.MoviePatch{
		Title:       ptr("Dune"),
		Description: ptr("Desert planet"),
		ReleaseYear: ptr(2021),
		Genre:       ptr("Sci-Fi"),
		Director:    ptr("Denis Villeneuve"),
		Rating:      ptr(8.5),
	}, now)
	set := doc[0].Value.(bson.D)
	keys := make([]string, 0, len(set))
	for _, e := range set {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"title", "description", "release_year", "genre", "director", "rating", "updated_at"}, keys)
	assert.NotContains(t, keys, "created_at")
}

func TestMongoSearchFilter(t *testing.T) {
	filter := mongoSearchFilter("ACTION")
	require.Len(t, filter, 1)
	assert.Equal(t, "$or", filter[0].Key)
	or, ok := filter[0].Value.(bson.A)
	require.True(t, ok)
	require.Len(t, or, len(searchFields))

	for i, clause := range or {
		d := clause.(bson.D)
		require.Len(t, d, 1)
		assert.Equal(t, searchFields[i], d[0].Key)
		re := d[0].Value.(bson.Regex)
		assert.Equal(t, "i", re.Options)
		assert.True(t, compileMongoRegex(t, re).MatchString("action"))
	}
}

func TestMongoSearchFilterIsLiteral(t *testing.T) {
	re := mongoSearchFilter("a.b (c)*")[0].Value.(bson.A)[0].(bson.D)[0].Value.(bson.Regex)
	rx := compileMongoRegex(t, re)
	assert.True(t, rx.MatchString("xx A.B (C)* yy"))
	assert.False(t, rx.MatchString("axb c"))
	assert.False(t, rx.MatchString("a.b ccc"))
}

func TestMongoNewestFirst(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, newestFirst)
}

func TestMySQLSetClause(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	set, args := mysqlSetClause(model.MoviePatch{Rating: ptr(9.0)}, now)
	assert.Equal(t, "rating = ?, updated_at = ?", set)
	assert.Equal(t, []any{9.0, now}, args)

	set, args = mysqlSetClause(model.MoviePatch{
		Title:       ptr("Dune"),
		Description: ptr("d"),
		ReleaseYear: ptr(2021),
		Genre:       ptr("Sci-Fi"),
		Director:    ptr("DV"),
		Rating:      ptr(8.5),
	}, now)
	assert.Equal(t, "title = ?, description = ?, release_year = ?, genre = ?, director = ?, rating = ?, updated_at = ?", set)
	assert.Equal(t, []any{"Dune", "d", 2021, "Sci-Fi", "DV", 8.5, now}, args)
}

func TestMySQLSearchClause(t *testing.T) {
	where, args := mysqlSearchClause("100%_Fun")
	assert.Equal(t, "LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(genre) LIKE ? OR LOWER(director) LIKE ?", where)
	require.Len(t, args, len(searchFields))
	for _, a := range args {
		assert.Equal(t, `%100\%\_fun%`, a)
	}
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `100\% pure\_fun\\`, likeEscaper.Replace(`100% pure_fun\`))
}
