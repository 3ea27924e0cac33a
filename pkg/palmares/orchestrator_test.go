package palmares

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/storage"
)

func header(t *testing.T, place string, date time.Time, provider string) *competition.Competition {
	t.Helper()
	c, err := competition.New(competition.Fingerprint(place, date), place, date, provider, "http://example.com/"+place)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type fakeProvider struct {
	name    string
	places  []string
	dates   []time.Time
	listErr error
	// contests by place; a missing place fails the detail fetch
	contests map[string][]competition.Contest

	started chan struct{}
	release chan struct{}

	listCalls   int32
	detailCalls int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) ListResults(ctx context.Context, year int) ([]*competition.Competition, error) {
	atomic.AddInt32(&p.listCalls, 1)
	if p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.listErr != nil {
		return nil, p.listErr
	}
	var headers []*competition.Competition
	for i, place := range p.places {
		c, err := competition.New(competition.Fingerprint(place, p.dates[i]), place, p.dates[i], p.name, "http://example.com/"+place)
		if err != nil {
			return nil, err
		}
		headers = append(headers, c)
	}
	return headers, nil
}

func (p *fakeProvider) GetDetails(ctx context.Context, c *competition.Competition) (*competition.Competition, error) {
	atomic.AddInt32(&p.detailCalls, 1)
	contests, ok := p.contests[c.Place]
	if !ok {
		return nil, errors.New("upstream unavailable")
	}
	c.Contests = contests
	return c, nil
}

type memoryStore struct {
	mu        sync.Mutex
	byID      map[string]*competition.Competition
	findCalls int
	findErr   error
	saveErr   error
}

func newMemoryStore(existing ...*competition.Competition) *memoryStore {
	s := &memoryStore{byID: map[string]*competition.Competition{}}
	for _, c := range existing {
		s.byID[c.ID] = c
	}
	return s
}

func (s *memoryStore) Find(ctx context.Context, kind string, criteria storage.Criteria, fields []string, offset, size int) ([]*competition.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var list []*competition.Competition
	for _, c := range s.byID {
		list = append(list, &competition.Competition{ID: c.ID})
	}
	return list, nil
}

func (s *memoryStore) FindByID(ctx context.Context, kind, id string, fields []string) (*competition.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id], nil
}

func (s *memoryStore) Save(ctx context.Context, m storage.Model) (storage.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.byID[m.ModelID()] = m.(*competition.Competition)
	return m, nil
}

func (s *memoryStore) Remove(ctx context.Context, m storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, m.ModelID())
	return nil
}

func (s *memoryStore) RemoveAll(ctx context.Context, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = map[string]*competition.Competition{}
	return nil
}

func (s *memoryStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	illzach = time.Date(2013, 2, 16, 0, 0, 0, 0, time.UTC)
	paris   = time.Date(2012, 9, 1, 0, 0, 0, 0, time.UTC)
	moscow  = time.Date(2013, 1, 5, 0, 0, 0, 0, time.UTC)
	kiev    = time.Date(2013, 11, 24, 0, 0, 0, 0, time.UTC)
	latin   = []competition.Contest{{Title: "Adulte Latines", Results: map[string]int{"Jean Durand - Elodie Martin": 1}}}
)

func newOrchestrator(t *testing.T, store storage.Store, p ...*fakeProvider) *Orchestrator {
	t.Helper()
	cfg := Config{Store: store}
	for _, fp := range p {
		cfg.Providers = append(cfg.Providers, fp)
	}
	o, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error without store")
	}
}

func TestUpdate(t *testing.T) {
	known := header(t, "Moscow", moscow, "WDSF")
	store := newMemoryStore(known)
	ffds := &fakeProvider{
		name:     "FFDS",
		places:   []string{"Paris", "Illzach"},
		dates:    []time.Time{paris, illzach},
		contests: map[string][]competition.Contest{"Illzach": latin},
	}
	wdsf := &fakeProvider{
		name:   "WDSF",
		places: []string{"Moscow", "Kiev", "Tallinn"},
		dates:  []time.Time{moscow, kiev, kiev},
		contests: map[string][]competition.Contest{
			"Kiev":    {{Title: "GrandSlam Latin", Results: map[string]int{"Ann Lee - Bob Ray": 8}}},
			"Tallinn": {},
		},
	}
	o := newOrchestrator(t, store, ffds, wdsf)

	result, err := o.Update(context.Background(), 2013)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Year != 2013 {
		t.Errorf("got year %d", result.Year)
	}
	var got []string
	for _, c := range result.Competitions {
		got = append(got, c.Provider+" "+c.Place)
	}
	if want := []string{"FFDS Illzach", "WDSF Kiev"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if n := atomic.LoadInt32(&wdsf.detailCalls); n != 2 {
		t.Errorf("known competition must not be detailed, got %d detail calls", n)
	}

	wantIDs := []string{
		known.ID,
		competition.Fingerprint("Illzach", illzach),
		competition.Fingerprint("Kiev", kiev),
	}
	sort.Strings(wantIDs)
	if !reflect.DeepEqual(store.ids(), wantIDs) {
		t.Errorf("stored %v, want %v", store.ids(), wantIDs)
	}
	if !reflect.DeepEqual(o.KnownIDs(), wantIDs) {
		t.Errorf("known %v, want %v", o.KnownIDs(), wantIDs)
	}

	// second run finds nothing new and reuses loaded ids
	result, err = o.Update(context.Background(), 2013)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Competitions) != 0 {
		t.Errorf("expected no new competition, got %d", len(result.Competitions))
	}
	if store.findCalls != 1 {
		t.Errorf("ids loaded %d times", store.findCalls)
	}
}

// waitForWaiters blocks until n callers are queued on the running update.
func waitForWaiters(t *testing.T, o *Orchestrator, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		o.mu.Lock()
		waiting := o.waiters
		o.mu.Unlock()
		if waiting >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("%d caller(s) never queued", n)
}

type outcome struct {
	result *Result
	err    error
}

func TestUpdateCoalesces(t *testing.T) {
	provider := &fakeProvider{
		name:     "FFDS",
		places:   []string{"Illzach"},
		dates:    []time.Time{illzach},
		contests: map[string][]competition.Contest{"Illzach": latin},
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	o := newOrchestrator(t, newMemoryStore(), provider)

	first := make(chan outcome, 1)
	second := make(chan outcome, 1)
	go func() {
		r, err := o.Update(context.Background(), 2012)
		first <- outcome{r, err}
	}()
	<-provider.started
	go func() {
		r, err := o.Update(context.Background(), 2013)
		second <- outcome{r, err}
	}()
	waitForWaiters(t, o, 1)
	close(provider.release)

	a, b := <-first, <-second
	if a.err != nil || b.err != nil {
		t.Fatalf("unexpected errors: %v, %v", a.err, b.err)
	}
	if !reflect.DeepEqual(a.result, b.result) {
		t.Errorf("coalesced result %+v differs from %+v", b.result, a.result)
	}
	if b.result.Year != 2012 {
		t.Errorf("coalesced caller got year %d, want the running update's", b.result.Year)
	}
	if n := atomic.LoadInt32(&provider.listCalls); n != 1 {
		t.Errorf("provider listed %d times", n)
	}
	if n := atomic.LoadInt32(&provider.detailCalls); n != 1 {
		t.Errorf("provider detailed %d times", n)
	}
}

func TestUpdateListFailure(t *testing.T) {
	known := header(t, "Moscow", moscow, "WDSF")
	store := newMemoryStore(known)
	healthy := &fakeProvider{
		name:     "WDSF",
		places:   []string{"Kiev"},
		dates:    []time.Time{kiev},
		contests: map[string][]competition.Contest{"Kiev": latin},
	}
	failing := &fakeProvider{
		name:    "FFDS",
		listErr: errors.New("status 503"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newOrchestrator(t, store, healthy, failing)

	first := make(chan outcome, 1)
	second := make(chan outcome, 1)
	go func() {
		r, err := o.Update(context.Background(), 2012)
		first <- outcome{r, err}
	}()
	<-failing.started
	go func() {
		r, err := o.Update(context.Background(), 2012)
		second <- outcome{r, err}
	}()
	waitForWaiters(t, o, 1)
	close(failing.release)

	for i, out := range []outcome{<-first, <-second} {
		if out.err == nil {
			t.Fatalf("caller %d: expected an error", i)
		}
		if !strings.Contains(out.err.Error(), "FFDS") {
			t.Errorf("caller %d: error %q does not name the provider", i, out.err)
		}
		if out.result != nil {
			t.Errorf("caller %d: unexpected result %+v", i, out.result)
		}
	}
	if want := []string{known.ID}; !reflect.DeepEqual(o.KnownIDs(), want) {
		t.Errorf("known ids changed to %v", o.KnownIDs())
	}
	if want := []string{known.ID}; !reflect.DeepEqual(store.ids(), want) {
		t.Errorf("store changed to %v", store.ids())
	}
}

func TestUpdateStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.findErr = errors.New("database is locked")
	o := newOrchestrator(t, store, &fakeProvider{name: "FFDS"})

	_, err := o.Update(context.Background(), 2012)
	if err == nil || !strings.Contains(err.Error(), "database is locked") {
		t.Fatalf("expected the store error, got %v", err)
	}
	if o.KnownIDs() != nil {
		t.Errorf("ids must stay unloaded after a failure")
	}

	store.findErr = nil
	store.saveErr = errors.New("disk full")
	o = newOrchestrator(t, store, &fakeProvider{
		name:     "FFDS",
		places:   []string{"Illzach"},
		dates:    []time.Time{illzach},
		contests: map[string][]competition.Contest{"Illzach": latin},
	})
	if _, err := o.Update(context.Background(), 2012); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected the save error, got %v", err)
	}
}

func TestUpdateWaiterContext(t *testing.T) {
	provider := &fakeProvider{
		name:    "FFDS",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newOrchestrator(t, newMemoryStore(), provider)

	done := make(chan struct{})
	go func() {
		o.Update(context.Background(), 2012)
		close(done)
	}()
	<-provider.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Update(ctx, 2012); !errors.Is(err, context.Canceled) {
		t.Errorf("expected a cancellation, got %v", err)
	}
	close(provider.release)
	<-done
}

func TestUpdateLeaderContext(t *testing.T) {
	illzach := time.Date(2013, 2, 16, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		name:     "FFDS",
		places:   []string{"Illzach"},
		dates:    []time.Time{illzach},
		contests: map[string][]competition.Contest{"Illzach": {{Title: "Adulte Latines", Results: map[string]int{"A - B": 1}}}},
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	o := newOrchestrator(t, newMemoryStore(), provider)

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := o.Update(ctx, 2012)
		leader <- err
	}()
	<-provider.started

	waiter := make(chan outcome, 1)
	go func() {
		result, err := o.Update(context.Background(), 2012)
		waiter <- outcome{result, err}
	}()
	waitForWaiters(t, o, 1)

	cancel()
	if err := <-leader; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the leader to be cancelled, got %v", err)
	}
	close(provider.release)

	got := <-waiter
	if got.err != nil {
		t.Fatalf("waiter failed with the leader's cancellation: %v", got.err)
	}
	if got.result.Year != 2012 || len(got.result.Competitions) != 1 {
		t.Errorf("unexpected result %+v", got.result)
	}
}

type panickingStore struct{ *memoryStore }

func (panickingStore) Find(ctx context.Context, kind string, criteria storage.Criteria, fields []string, offset, size int) ([]*competition.Competition, error) {
	panic("store crashed")
}

func TestUpdateRecoversFromPanic(t *testing.T) {
	o := newOrchestrator(t, panickingStore{newMemoryStore()}, &fakeProvider{name: "FFDS"})
	if _, err := o.Update(context.Background(), 2012); err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("expected the panic as an error, got %v", err)
	}

	o.mu.Lock()
	running := o.running
	o.mu.Unlock()
	if running != nil {
		t.Fatal("update still marked as running")
	}
}
