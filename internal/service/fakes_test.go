package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/notify"
)

type stubSource struct {
	platform domain.Platform
	listings []domain.Listing
	err      error
	calls    int
	mu       sync.Mutex
}

func (s *stubSource) Platform() domain.Platform { return s.platform }

func (s *stubSource) Search(context.Context, string, int) ([]domain.Listing, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.listings, s.err
}

type memOpps struct {
	mu   sync.Mutex
	rows []domain.Opportunity
}

func (m *memOpps) SaveBatch(_ context.Context, opps []domain.Opportunity) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, opps...)
	return len(opps), nil
}

func (m *memOpps) GetByID(_ context.Context, id string) (domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.rows {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Opportunity{}, domain.ErrNotFound
}

func (m *memOpps) ListByStatus(_ context.Context, status domain.OpportunityStatus, opts domain.ListOpts) ([]domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Opportunity
	for _, o := range m.rows {
		if status != "" && o.Status != status {
			continue
		}
		if opts.Since != nil && o.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && o.CreatedAt.After(*opts.Until) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memOpps) UpdateStatus(_ context.Context, id string, from, to domain.OpportunityStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.rows {
		if o.ID != id {
			continue
		}
		if o.Status != from {
			return domain.ErrInvalidTransition
		}
		m.rows[i].Status = to
		return nil
	}
	return domain.ErrNotFound
}

func (m *memOpps) UpdateNotes(_ context.Context, id, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.rows {
		if o.ID == id {
			m.rows[i].Notes = notes
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memOpps) ListBefore(context.Context, time.Time) ([]domain.Opportunity, error) {
	return nil, nil
}

func (m *memOpps) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type memPrices struct {
	mu       sync.Mutex
	recorded []domain.Listing
	history  map[string][]domain.PricePoint
}

func (m *memPrices) Record(_ context.Context, listings []domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, listings...)
	return nil
}

func (m *memPrices) History(_ context.Context, platform domain.Platform, productID string, _ time.Time) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[string(platform)+"/"+productID], nil
}

func (m *memPrices) ListBefore(context.Context, time.Time) ([]domain.PricePoint, error) {
	return nil, nil
}

func (m *memPrices) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type memBlacklist struct {
	entries []domain.BlacklistEntry
}

func (m *memBlacklist) Add(_ context.Context, e domain.BlacklistEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memBlacklist) Remove(_ context.Context, p domain.Platform, id string) error {
	for i, e := range m.entries {
		if e.Platform == p && e.SellerID == id {
			m.entries = slices.Delete(m.entries, i, i+1)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memBlacklist) List(context.Context) ([]domain.BlacklistEntry, error) {
	return m.entries, nil
}

type keywordCall struct {
	keyword, platform string
	results, found    int
	avgProfit         float64
}

type memKeywords struct {
	calls []keywordCall
	top   []domain.KeywordStats
}

func (m *memKeywords) RecordSearch(_ context.Context, keyword, platform string, results, found int, avgProfit float64) error {
	m.calls = append(m.calls, keywordCall{keyword, platform, results, found, avgProfit})
	return nil
}

func (m *memKeywords) Top(_ context.Context, limit int) ([]domain.KeywordStats, error) {
	return m.top[:min(limit, len(m.top))], nil
}

type memPerf struct {
	records []domain.PerformanceRecord
	summary domain.PerformanceSummary
	since   time.Time
}

func (m *memPerf) Insert(_ context.Context, rec domain.PerformanceRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memPerf) Summary(_ context.Context, since time.Time) (domain.PerformanceSummary, error) {
	m.since = since
	return m.summary, nil
}

type memAudit struct {
	mu     sync.Mutex
	events []string
}

func (m *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memAudit) List(context.Context, string, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type memBus struct {
	mu        sync.Mutex
	published map[string]int
	streamed  int
}

func newMemBus() *memBus { return &memBus{published: map[string]int{}} }

func (m *memBus) Publish(_ context.Context, channel string, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[channel]++
	return nil
}

func (m *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func (m *memBus) StreamAppend(context.Context, string, []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamed++
	return nil
}

func (m *memBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Listing
}

func newMemCache() *memCache { return &memCache{entries: map[string][]domain.Listing{}} }

func (m *memCache) Put(_ context.Context, p domain.Platform, kw string, l []domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[string(p)+":"+strings.ToLower(kw)] = l
	return nil
}

func (m *memCache) Get(_ context.Context, p domain.Platform, kw string) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.entries[string(p)+":"+strings.ToLower(kw)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

type fakeLock struct {
	held     bool
	released int
}

func (f *fakeLock) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.held = true
	return func() { f.held = false; f.released++ }, nil
}

type fakeCooldown struct {
	seen map[string]bool
}

func (f *fakeCooldown) Admit(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type sentAlert struct {
	event notify.Event
	title string
	body  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
}

func (f *fakeNotifier) Enabled() bool { return true }

func (f *fakeNotifier) Notify(_ context.Context, event notify.Event, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{event, title, message})
	return nil
}
