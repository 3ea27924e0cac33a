// Package palmares runs updates: it lists new competitions from every
// provider, fetches their contests and persists them.
package palmares

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/providers"
	"github.com/palmares-dance/palmares/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// Result is what an update found and saved.
type Result struct {
	Year         int                        `json:"year"`
	Competitions []*competition.Competition `json:"competitions"`
}

// Config holds everything New needs.
type Config struct {
	Providers []providers.Provider
	Store     storage.Store
	PoolSize  int              // defaults to DefaultPoolSize if <= 0
	Log       providers.Logger // optional; nil = no logging
}

// run is an update in flight. done is closed once result and err are set.
type run struct {
	year   int
	done   chan struct{}
	result *Result
	err    error
}

// Orchestrator runs at most one update at a time.
type Orchestrator struct {
	providers []providers.Provider
	store     storage.Store
	poolSize  int
	log       providers.Logger

	mu      sync.Mutex
	running *run
	waiters int
	// ids holds known fingerprints; nil until loaded from the store.
	ids map[string]bool
}

// New builds an orchestrator. Providers are queried in the given order
// and their competitions returned in that order.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("no store provided")
	}
	log := cfg.Log
	if log == nil {
		log = providers.NopLogger{}
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Orchestrator{
		providers: cfg.Providers,
		store:     cfg.Store,
		poolSize:  poolSize,
		log:       log,
	}, nil
}

// Update fetches and saves the competitions of year not stored yet.
//
// When an update is already running, Update does not start another one: it
// waits for the running update and returns its result or error, even when
// that update was asked for a different year.
//
// The update itself is not cancelled with ctx; a caller whose ctx is done
// stops waiting and gets ctx.Err() while the update goes on for the others.
func (o *Orchestrator) Update(ctx context.Context, year int) (*Result, error) {
	o.mu.Lock()
	r := o.running
	if r != nil {
		o.waiters++
		o.mu.Unlock()
		o.log.Debugf("Update of %d already running, waiting for it", r.year)

		defer func() {
			o.mu.Lock()
			o.waiters--
			o.mu.Unlock()
		}()
	} else {
		r = &run{year: year, done: make(chan struct{})}
		o.running = r
		o.mu.Unlock()

		go o.execute(context.WithoutCancel(ctx), r)
	}

	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute runs r and releases the orchestrator for the next update, even
// when the update panics.
func (o *Orchestrator) execute(ctx context.Context, r *run) {
	defer func() {
		if p := recover(); p != nil {
			r.result, r.err = nil, fmt.Errorf("update of %d panicked: %v", r.year, p)
		}
		o.mu.Lock()
		o.running = nil
		o.mu.Unlock()
		close(r.done)
	}()
	r.result, r.err = o.update(ctx, r.year)
}

func (o *Orchestrator) update(ctx context.Context, year int) (*Result, error) {
	known, err := o.knownIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load known competitions: %w", err)
	}

	perProvider := make([][]*competition.Competition, len(o.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range o.providers {
		i, p := i, p
		g.Go(func() error {
			headers, err := p.ListResults(gctx, year)
			if err != nil {
				return fmt.Errorf("update of %d failed for %s: %w", year, p.Name(), err)
			}
			fresh := make([]*competition.Competition, 0, len(headers))
			for _, h := range headers {
				if !known[h.ID] {
					fresh = append(fresh, h)
				}
			}
			o.log.Infof("[%s] %d competition(s) listed, %d new", p.Name(), len(headers), len(fresh))
			perProvider[i] = poolMap(gctx, fresh, o.poolSize, o.details(p))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	saved := []*competition.Competition{}
	for _, list := range perProvider {
		for _, c := range list {
			if len(c.Contests) == 0 {
				o.log.Debugf("[%s] skipping %s %s: no contests", c.Provider, c.Place, c.Date.Format("2006-01-02"))
				continue
			}
			if _, err := o.store.Save(ctx, c); err != nil {
				return nil, fmt.Errorf("failed to save competition %s: %w", c.ID, err)
			}
			o.mu.Lock()
			o.ids[c.ID] = true
			o.mu.Unlock()
			o.log.Debugf("[%s] saved %s %s (%d contests)", c.Provider, c.Place, c.Date.Format("2006-01-02"), len(c.Contests))
			saved = append(saved, c)
		}
	}
	return &Result{Year: year, Competitions: saved}, nil
}

// details returns the pool task fetching one competition's contests. A
// failure leaves the competition without contests.
func (o *Orchestrator) details(p providers.Provider) func(context.Context, *competition.Competition) *competition.Competition {
	return func(ctx context.Context, header *competition.Competition) *competition.Competition {
		detailed, err := p.GetDetails(ctx, header)
		if err != nil {
			o.log.Warnf("[%s] failed to get details of %s %s: %v", p.Name(), header.Place, header.Date.Format("2006-01-02"), err)
			header.Contests = []competition.Contest{}
			return header
		}
		return detailed
	}
}

// knownIDs loads fingerprints from the store on first use and returns a
// snapshot of them.
func (o *Orchestrator) knownIDs(ctx context.Context) (map[string]bool, error) {
	o.mu.Lock()
	loaded := o.ids != nil
	o.mu.Unlock()

	if !loaded {
		stored, err := o.store.Find(ctx, competition.Kind, storage.Criteria{}, []string{"id"}, 0, 0)
		if err != nil {
			return nil, err
		}
		ids := make(map[string]bool, len(stored))
		for _, c := range stored {
			ids[c.ID] = true
		}
		o.log.Debugf("%d known competition(s) loaded", len(ids))
		o.mu.Lock()
		o.ids = ids
		o.mu.Unlock()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := make(map[string]bool, len(o.ids))
	for id := range o.ids {
		snapshot[id] = true
	}
	return snapshot, nil
}

// KnownIDs returns the sorted fingerprints known so far, nil before the
// first update.
func (o *Orchestrator) KnownIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ids == nil {
		return nil
	}
	ids := make([]string, 0, len(o.ids))
	for id := range o.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
