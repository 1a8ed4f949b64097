// Package stats derives the dashboard aggregates from a full catalog listing.
package stats

import (
	"math"
	"sort"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// TopN bounds the top_rated and most_recent lists.
const TopN = 10

// Rating distribution bucket labels.
const (
	BucketPoor      = "Poor (0-3)"
	BucketFair      = "Fair (3-5)"
	BucketGood      = "Good (5-7)"
	BucketExcellent = "Excellent (7-10)"
)

// DirectorStat summarizes the movies of one director.
type DirectorStat struct {
	Director      string  `json:"director"`
	MovieCount    int     `json:"movie_count"`
	AverageRating float64 `json:"avg_rating"`
}

// Summary is the analytics payload served at /movies/stats.
type Summary struct {
	Total              int                `json:"total"`
	AverageRating      float64            `json:"average_rating"`
	HighestRating      float64            `json:"highest_rating"`
	LowestRating       float64            `json:"lowest_rating"`
	MedianRating       float64            `json:"median_rating"`
	TotalGenres        int                `json:"total_genres"`
	LatestRelease      int                `json:"latest_release"`
	RatingDistribution map[string]int     `json:"rating_distribution"`
	GenreCounts        map[string]int     `json:"genre_counts"`
	GenreAverageRating map[string]float64 `json:"genre_average_rating"`
	YearCounts         map[int]int        `json:"year_counts"`
	TopRated           []*model.Movie     `json:"top_rated"`
	MostRecent         []*model.Movie     `json:"most_recent"`
	Directors          []DirectorStat     `json:"directors"`
}

// Compute builds a Summary.  The input slice is not reordered.
func Compute(movies []*model.Movie) Summary {
	s := Summary{
		Total: len(movies),
		RatingDistribution: map[string]int{
			BucketPoor: 0, BucketFair: 0, BucketGood: 0, BucketExcellent: 0,
		},
		GenreCounts:        map[string]int{},
		GenreAverageRating: map[string]float64{},
		YearCounts:         map[int]int{},
		TopRated:           []*model.Movie{},
		MostRecent:         []*model.Movie{},
		Directors:          []DirectorStat{},
	}
	if len(movies) == 0 {
		return s
	}

	ratings := make([]float64, 0, len(movies))
	genreSums := map[string]float64{}
	type dirAgg struct {
		count int
		sum   float64
	}
	dirs := map[string]*dirAgg{}

	s.HighestRating = math.Inf(-1)
	s.LowestRating = math.Inf(1)
	var sum float64
	for _, m := range movies {
		sum += m.Rating
		ratings = append(ratings, m.Rating)
		s.HighestRating = math.Max(s.HighestRating, m.Rating)
		s.LowestRating = math.Min(s.LowestRating, m.Rating)
		if m.ReleaseYear > s.LatestRelease {
			s.LatestRelease = m.ReleaseYear
		}
		s.RatingDistribution[bucket(m.Rating)]++
		s.GenreCounts[m.Genre]++
		genreSums[m.Genre] += m.Rating
		s.YearCounts[m.ReleaseYear]++
		if m.Director != "" {
			d := dirs[m.Director]
			if d == nil {
				d = &dirAgg{}
				dirs[m.Director] = d
			}
			d.count++
			d.sum += m.Rating
		}
	}
	s.AverageRating = sum / float64(len(movies))
	s.MedianRating = median(ratings)
	s.TotalGenres = len(s.GenreCounts)
	for g, total := range genreSums {
		s.GenreAverageRating[g] = total / float64(s.GenreCounts[g])
	}

	for name, d := range dirs {
		if d.count < 2 {
			continue
		}
		s.Directors = append(s.Directors, DirectorStat{
			Director:      name,
			MovieCount:    d.count,
			AverageRating: d.sum / float64(d.count),
		})
	}
	sort.Slice(s.Directors, func(i, j int) bool {
		if s.Directors[i].AverageRating != s.Directors[j].AverageRating {
			return s.Directors[i].AverageRating > s.Directors[j].AverageRating
		}
		return s.Directors[i].Director < s.Directors[j].Director
	})

	s.TopRated = topBy(movies, func(a, b *model.Movie) bool { return a.Rating > b.Rating })
	s.MostRecent = topBy(movies, func(a, b *model.Movie) bool { return a.ReleaseYear > b.ReleaseYear })
	return s
}

func bucket(r float64) string {
	switch {
	case r <= 3:
		return BucketPoor
	case r <= 5:
		return BucketFair
	case r <= 7:
		return BucketGood
	default:
		return BucketExcellent
	}
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// topBy returns up to TopN movies ordered by less; ties keep input order.
func topBy(movies []*model.Movie, less func(a, b *model.Movie) bool) []*model.Movie {
	cp := append([]*model.Movie(nil), movies...)
	sort.SliceStable(cp, func(i, j int) bool { return less(cp[i], cp[j]) })
	if len(cp) > TopN {
		cp = cp[:TopN]
	}
	return cp
}
