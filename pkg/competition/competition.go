// Package competition holds the canonical catalogue entities shared by every
// provider: competitions, their contests, and the ranking projection read by
// consumers.
package competition

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"github.com/palmares-dance/palmares/pkg/normalize"
)

// Kind names the competition model in storage.
const Kind = "competition"

var ErrMissingID = errors.New("no id provided for competition")

// Contest is one ranked category of a competition. Results maps each couple
// name to its final rank; two couples may share a rank.
type Contest struct {
	Title   string         `json:"title"`
	Results map[string]int `json:"results"`
}

// Competition is an event that may last several days and hold many contests.
type Competition struct {
	ID       string    `json:"id"`
	Place    string    `json:"place"`
	Date     time.Time `json:"date"`
	Provider string    `json:"provider"`
	URL      string    `json:"url"`
	DataURLs []string  `json:"dataUrls"`
	Contests []Contest `json:"contests"`
}

// New builds a competition header. The date only keeps its calendar day, as
// seen in its own location, and is stored as UTC midnight.
func New(id, place string, date time.Time, provider, url string) (*Competition, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	c := &Competition{
		ID:       id,
		Place:    place,
		Date:     Day(date),
		Provider: provider,
		URL:      url,
		Contests: []Contest{},
	}
	if url != "" {
		c.DataURLs = []string{url}
	}
	return c, nil
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Fingerprint identifies a real-world competition from its place and day,
// whatever the title or page it was discovered through.
func Fingerprint(place string, date time.Time) string {
	sum := md5.Sum([]byte(normalize.Slugify(place) + date.Format("20060102")))
	return hex.EncodeToString(sum[:])
}

// AddDataURL appends url unless already known. It reports whether url was added.
func (c *Competition) AddDataURL(url string) bool {
	if url == "" {
		return false
	}
	for _, known := range c.DataURLs {
		if known == url {
			return false
		}
	}
	c.DataURLs = append(c.DataURLs, url)
	return true
}

func (c *Competition) ModelKind() string { return Kind }

func (c *Competition) ModelID() string { return c.ID }
