// Package ffds extracts national competitions published by the French
// ballroom dancing federation.
package ffds

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/providers"
)

const (
	defaultCharset  = "iso-8859-1"
	defaultTimezone = "Europe/Paris"
	archivesQuery   = "?Archives"
)

func init() {
	providers.Register("ffds", func(opts providers.Options, log providers.Logger) (providers.Provider, error) {
		return New(opts, log)
	})
}

type group struct {
	id   string
	name string
}

// Provider reads the federation web site. Its group list is fetched once
// and kept for the provider's lifetime.
type Provider struct {
	opts  providers.Options
	loc   *time.Location
	fetch *providers.Fetcher
	log   providers.Logger
	now   func() time.Time

	groupsMu sync.Mutex
	groups   []group
}

// New validates options and builds the provider.
func New(opts providers.Options, log providers.Logger) (*Provider, error) {
	if err := opts.Validate("details", "clubs", "couples", "search"); err != nil {
		return nil, err
	}
	for _, field := range []string{"details", "couples", "search"} {
		if err := opts.ValidateTemplate(field, "{value}"); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = providers.NopLogger{}
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return nil, err
	}
	return &Provider{
		opts:  opts,
		loc:   opts.Location(loc),
		fetch: providers.NewFetcher(opts, defaultCharset),
		log:   log,
		now:   time.Now,
	}, nil
}

func (p *Provider) Name() string { return p.opts.Name }

// isFirstHalf reports whether date falls before August 15th.
func isFirstHalf(date time.Time) bool {
	return date.Month() < time.August || (date.Month() == time.August && date.Day() <= 14)
}

// isWithinSeason reports whether date belongs to the season starting in
// year: second half of year, or first half of the next one.
func isWithinSeason(year int, date time.Time) bool {
	return (date.Year() == year && !isFirstHalf(date)) || (date.Year() == year+1 && isFirstHalf(date))
}

func (p *Provider) ListResults(ctx context.Context, year int) ([]*competition.Competition, error) {
	listURL := p.opts.Endpoint(p.opts.List)
	if !isWithinSeason(year, p.now().In(p.loc)) {
		listURL += archivesQuery
	}
	p.log.Debugf("[%s] listing competitions of season %d from %s", p.Name(), year, listURL)

	body, err := p.fetch.Get(ctx, listURL, "failed to fetch results from "+p.Name())
	if err != nil {
		return nil, err
	}
	rows, err := parseList(body)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.Name(), URL: listURL, Message: "failed to parse results", Err: err}
	}

	candidates := make([]*competition.Competition, 0, len(rows))
	for _, row := range rows {
		c, ok := p.header(row, year)
		if ok {
			candidates = append(candidates, c)
		}
	}
	return competition.Merge(candidates), nil
}

// header turns a listing row into a competition, or reports false when the
// row is malformed or out of season.
func (p *Provider) header(row listRow, year int) (*competition.Competition, bool) {
	date, err := time.ParseInLocation(p.opts.DateFormat, row.date, p.loc)
	if err != nil {
		p.log.Debugf("[%s] skipping %s: %v", p.Name(), row.place, err)
		return nil, false
	}
	if !isWithinSeason(year, date) {
		return nil, false
	}
	detailsURL := p.opts.Endpoint(fmt.Sprintf(p.opts.Details, row.id))
	c, err := competition.New(competition.Fingerprint(row.place, date), row.place, date, p.Name(), detailsURL)
	if err != nil {
		return nil, false
	}
	return c, true
}

func (p *Provider) GetDetails(ctx context.Context, c *competition.Competition) (*competition.Competition, error) {
	p.log.Debugf("[%s] getting details of %s", p.Name(), c.Place)

	var urls []string
	seen := map[string]bool{}
	for _, dataURL := range c.DataURLs {
		body, err := p.fetch.Get(ctx, dataURL, fmt.Sprintf("failed to fetch contests from %s %s", p.Name(), c.Place))
		if err != nil {
			return nil, err
		}
		for _, href := range parseContestLinks(body) {
			contestURL := p.opts.Endpoint(href)
			if !seen[contestURL] {
				seen[contestURL] = true
				urls = append(urls, contestURL)
			}
		}
	}

	c.Contests = []competition.Contest{}
	if len(urls) == 0 {
		return c, nil
	}
	p.log.Debugf("[%s] fetching %d contest(s) of %s", p.Name(), len(urls), c.Place)

	for i, contestURL := range urls {
		body, err := p.fetch.Get(ctx, contestURL, fmt.Sprintf("failed to fetch contest ranking from %s %s", p.Name(), c.Place))
		if err != nil {
			return nil, err
		}
		contest, err := parseRanking(body)
		if err != nil {
			return nil, &providers.ParseError{Provider: p.Name(), URL: contestURL, Message: "failed to parse ranking", Err: err}
		}
		if len(contest.Results) == 0 {
			p.log.Debugf("[%s] no results in %s", p.Name(), contestURL)
			continue
		}
		p.log.Debugf("[%s] got contest results (%d/%d)", p.Name(), i+1, len(urls))
		c.Contests = append(c.Contests, contest)
	}
	return c, nil
}

func (p *Provider) loadGroups(ctx context.Context) ([]group, error) {
	p.groupsMu.Lock()
	defer p.groupsMu.Unlock()
	if p.groups != nil {
		return p.groups, nil
	}
	clubsURL := p.opts.Endpoint(p.opts.Clubs)
	body, err := p.fetch.Get(ctx, clubsURL, "failed to fetch group list from "+p.Name())
	if err != nil {
		return nil, err
	}
	groups, err := parseGroups(body)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.Name(), URL: clubsURL, Message: "failed to parse groups", Err: err}
	}
	p.groups = groups
	return groups, nil
}

// SearchGroups returns the club names containing query, case-insensitively.
func (p *Provider) SearchGroups(ctx context.Context, query string) ([]string, error) {
	groups, err := p.loadGroups(ctx)
	if err != nil {
		return nil, err
	}
	searched := strings.ToLower(strings.TrimSpace(query))
	names := []string{}
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.name), searched) {
			names = append(names, g.name)
		}
	}
	return names, nil
}

// GetGroupCouples returns the couples of a club, matched by exact name
// regardless of case.
func (p *Provider) GetGroupCouples(ctx context.Context, name string) ([]string, error) {
	searched := strings.ToLower(strings.TrimSpace(name))
	if searched == "" {
		return nil, &providers.ValidationError{Provider: p.Name(), Field: "group", Reason: "is required"}
	}
	groups, err := p.loadGroups(ctx)
	if err != nil {
		return nil, err
	}
	var found *group
	for i := range groups {
		if strings.ToLower(groups[i].name) == searched {
			found = &groups[i]
			break
		}
	}
	if found == nil {
		return nil, &providers.NotFoundError{Kind: "group", Name: name}
	}

	couplesURL := p.opts.Endpoint(fmt.Sprintf(p.opts.Couples, found.id))
	body, err := p.fetch.Get(ctx, couplesURL, fmt.Sprintf("failed to fetch couples of group %s from %s", name, p.Name()))
	if err != nil {
		return nil, err
	}
	couples, err := parseCouples(body)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.Name(), URL: couplesURL, Message: "failed to parse couples", Err: err}
	}
	return couples, nil
}

// SearchCouples returns couples whose dancers match query.
func (p *Provider) SearchCouples(ctx context.Context, query string) ([]string, error) {
	searchURL := p.opts.Endpoint(fmt.Sprintf(p.opts.Search, queryEscape(strings.ToUpper(query))))
	body, err := p.fetch.Get(ctx, searchURL, "failed to fetch couples from "+p.Name())
	if err != nil {
		return nil, err
	}
	couples, err := parseCouples(body)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.Name(), URL: searchURL, Message: "failed to parse couples", Err: err}
	}
	return couples, nil
}
