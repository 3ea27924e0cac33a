// Package wdsf extracts international competitions published by the World
// DanceSport Federation.
package wdsf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/providers"
)

const dayLayout = "2 January 2006"

func init() {
	providers.Register("wdsf", func(opts providers.Options, log providers.Logger) (providers.Provider, error) {
		return New(opts, log)
	})
}

// Provider reads WDSF yearly CSV calendars and ranking pages. It has no
// club or couple directory.
type Provider struct {
	opts  providers.Options
	loc   *time.Location
	fetch *providers.Fetcher
	log   providers.Logger
}

// New validates options and builds the provider.
func New(opts providers.Options, log providers.Logger) (*Provider, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := opts.ValidateTemplate("list", 987654321); err != nil {
		return nil, err
	}
	if log == nil {
		log = providers.NopLogger{}
	}
	return &Provider{
		opts:  opts,
		loc:   opts.Location(time.UTC),
		fetch: providers.NewFetcher(opts, ""),
		log:   log,
	}, nil
}

func (p *Provider) Name() string { return p.opts.Name }

// ListResults returns the competitions of calendar year. There is no
// season window: the calendar is already limited to that year.
func (p *Provider) ListResults(ctx context.Context, year int) ([]*competition.Competition, error) {
	listURL := p.opts.Endpoint(fmt.Sprintf(p.opts.List, year))
	p.log.Debugf("[%s] listing competitions of %d from %s", p.Name(), year, listURL)

	body, err := p.fetch.Get(ctx, listURL, "failed to fetch results from "+p.Name())
	if err != nil {
		return nil, err
	}
	records, err := parseCalendar(body)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.Name(), URL: listURL, Message: "failed to parse results", Err: err}
	}

	candidates := make([]*competition.Competition, 0, len(records))
	for _, record := range records {
		date, err := time.ParseInLocation(p.opts.DateFormat, record.date, p.loc)
		if err != nil {
			p.log.Debugf("[%s] skipping %s: %v", p.Name(), record.place, err)
			continue
		}
		c, err := competition.New(competition.Fingerprint(record.place, date), record.place, date, p.Name(), record.url)
		if err != nil {
			continue
		}
		candidates = append(candidates, c)
	}
	return competition.Merge(candidates), nil
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
		for _, href := range parseContestLinks(body, c.Date) {
			contestURL := strings.TrimSuffix(p.opts.URL, "/") + href
			if !seen[contestURL] {
				seen[contestURL] = true
				urls = append(urls, contestURL)
			}
		}
	}

	c.Contests = []competition.Contest{}
	for _, contestURL := range urls {
		// only participants are known before the contest starts
		if strings.HasSuffix(contestURL, "/Participants") {
			continue
		}
		if !strings.HasSuffix(contestURL, "/Ranking") {
			contestURL += "/Ranking"
		}
		body, err := p.fetch.Get(ctx, contestURL, fmt.Sprintf("failed to fetch contest ranking from %s %s", p.Name(), c.Place))
		if err != nil {
			return nil, err
		}
		contest, ok, err := parseRanking(body)
		if err != nil {
			return nil, &providers.ParseError{Provider: p.Name(), URL: contestURL, Message: "failed to parse ranking", Err: err}
		}
		if !ok {
			p.log.Debugf("[%s] %s is not ranked", p.Name(), contestURL)
			continue
		}
		c.Contests = append(c.Contests, contest)
	}
	return c, nil
}
