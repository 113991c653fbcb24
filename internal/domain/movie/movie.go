// Package movie holds the read-only catalog entities.
package movie

import (
	"strings"
	"time"
)

// Summary is the row shape shared by listings, keyword search and generated queries.
type Summary struct {
	MovieID       int64
	Rank          int
	CNTitle       string
	OriginalTitle string
	Year          int
	Rating        float64
	PosterURL     string
	Directors     string
	Actors        string
}

// ListItem is a Summary plus the short description shown in paginated listings.
type ListItem struct {
	Summary
	Description string
}

// Detail is a single movie with its associations.
type Detail struct {
	MovieID       int64
	DoubanID      int64
	Rank          int
	CNTitle       string
	OriginalTitle string
	Year          int
	Rating        float64
	CommentCount  int
	PosterURL     string
	Description   string
	Countries     string
	Languages     string
	Durations     string
	ReleaseDate   string
	IMDbID        string
	Genres        []string
	Directors     []string
	Actors        []string
	ReviewCount   int
	Introduction  string
}

// Genre is a genre with the number of movies tagged with it.
type Genre struct {
	ID         int64
	Name       string
	MovieCount int
}

// Role is the part a person plays in a movie.
type Role string

// Celebrity roles.
const (
	RoleDirector Role = "director"
	RoleActor    Role = "actor"
)

// ParseRole maps the accepted spellings (including Chinese) to a Role.
// An empty or unknown value returns "" and false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "director", "directors", "导演":
		return RoleDirector, true
	case "actor", "actors", "演员":
		return RoleActor, true
	default:
		return "", false
	}
}

// Celebrity is a director or actor.
type Celebrity struct {
	ID   int64
	Name string
	Role Role
}

// CelebrityDetail is a person with every movie they directed or acted in.
type CelebrityDetail struct {
	Name   string
	Roles  []Role
	Movies []CelebrityMovie
}

// CelebrityMovie is one filmography entry.
type CelebrityMovie struct {
	Summary
	Role Role
}

// Review is a user review of a movie.
type Review struct {
	ReviewID    int64
	CommentID   string
	UserID      int64
	Username    string
	UserRating  float64
	Comment     string
	UsefulCount int
	CreatedAt   *time.Time
}

// Bucket is one bar of a distribution chart.
type Bucket struct {
	Label string
	Count int
}

// Statistics aggregates catalog distributions for charts.
type Statistics struct {
	YearDistribution   []Bucket
	GenreDistribution  []Bucket
	RatingDistribution []Bucket
}

// Filter narrows a movie listing. Zero values mean "no constraint".
type Filter struct {
	Genre     string
	YearStart int
	YearEnd   int
	MinRating float64
}
