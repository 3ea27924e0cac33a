package competition

import (
	"sort"
	"strings"
)

// Dance disciplines used by rankings.
const (
	KindStandard = "std"
	KindLatin    = "lat"
	KindTen      = "ten"
)

// Ranking is the result of one couple in one contest. Consumers build it from
// stored competitions; ingestion never does.
type Ranking struct {
	Couple  string `json:"couple"`
	Contest string `json:"contest"`
	Kind    string `json:"kind"`
	Rank    int    `json:"rank"`
	Total   int    `json:"total"`
}

// DanceKind guesses the discipline from a contest title, or returns "".
func DanceKind(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "ten dance"), strings.Contains(lower, "10 danses"), strings.Contains(lower, "10 dances"):
		return KindTen
	case strings.Contains(lower, "latin"), strings.Contains(lower, "lat"):
		return KindLatin
	case strings.Contains(lower, "standard"), strings.Contains(lower, "std"):
		return KindStandard
	}
	return ""
}

// RankingsOf projects the results of couple out of competitions, in
// competition then contest order. The couple name is matched
// case-insensitively by substring.
func RankingsOf(competitions []*Competition, couple string) []Ranking {
	searched := strings.ToLower(strings.TrimSpace(couple))
	var rankings []Ranking
	for _, c := range competitions {
		for _, contest := range c.Contests {
			start := len(rankings)
			for name, rank := range contest.Results {
				if !strings.Contains(strings.ToLower(name), searched) {
					continue
				}
				rankings = append(rankings, Ranking{
					Couple:  name,
					Contest: contest.Title,
					Kind:    DanceKind(contest.Title),
					Rank:    rank,
					Total:   len(contest.Results),
				})
			}
			found := rankings[start:]
			sort.Slice(found, func(i, j int) bool {
				if found[i].Rank != found[j].Rank {
					return found[i].Rank < found[j].Rank
				}
				return found[i].Couple < found[j].Couple
			})
		}
	}
	return rankings
}
