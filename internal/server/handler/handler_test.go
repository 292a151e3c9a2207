package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/service"
)

var quiet = slog.New(slog.DiscardHandler)

type fakeOpps struct {
	opps         []domain.Opportunity
	transitionTo domain.OpportunityStatus
	err          error
}

func (f *fakeOpps) List(_ context.Context, status domain.OpportunityStatus, _ domain.ListOpts) ([]domain.Opportunity, error) {
	var out []domain.Opportunity
	for _, o := range f.opps {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, f.err
}

func (f *fakeOpps) Get(_ context.Context, id string) (domain.Opportunity, error) {
	for _, o := range f.opps {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Opportunity{}, fmt.Errorf("opportunity_service: get %q: %w", id, domain.ErrNotFound)
}

func (f *fakeOpps) Transition(ctx context.Context, id string, to domain.OpportunityStatus, notes string) (domain.Opportunity, error) {
	if f.err != nil {
		return domain.Opportunity{}, f.err
	}
	o, err := f.Get(ctx, id)
	if err != nil {
		return o, err
	}
	f.transitionTo = to
	o.Status, o.Notes = to, notes
	return o, nil
}

func (f *fakeOpps) Summary(context.Context, domain.OpportunityStatus, time.Time) (domain.OpportunitySummary, error) {
	return domain.OpportunitySummary{TotalOpportunities: len(f.opps)}, f.err
}

func (f *fakeOpps) Competition(context.Context, string) (domain.CompetitorAnalysis, error) {
	return domain.CompetitorAnalysis{Position: domain.PositionUnique}, f.err
}

func do(h http.HandlerFunc, method, target, body string, pathValues ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestOpportunityHandler_List(t *testing.T) {
	h := NewOpportunityHandler(&fakeOpps{opps: []domain.Opportunity{
		{ID: "a", Status: domain.StatusNew},
		{ID: "b", Status: domain.StatusSkipped},
	}}, quiet)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  float64
	}{
		{"all", "/api/opportunities", http.StatusOK, 2},
		{"by status", "/api/opportunities?status=new", http.StatusOK, 1},
		{"unknown status", "/api/opportunities?status=bogus", http.StatusBadRequest, 0},
		{"bad since", "/api/opportunities?since=yesterday", http.StatusBadRequest, 0},
		{"date since", "/api/opportunities?since=2025-01-01", http.StatusOK, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h.List, http.MethodGet, tt.target, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantCount, decode(t, rec)["count"])
			}
		})
	}
}

func TestOpportunityHandler_Get(t *testing.T) {
	h := NewOpportunityHandler(&fakeOpps{opps: []domain.Opportunity{{ID: "a"}}}, quiet)

	assert.Equal(t, http.StatusOK, do(h.Get, http.MethodGet, "/api/opportunities/a", "", "id", "a").Code)
	assert.Equal(t, http.StatusNotFound, do(h.Get, http.MethodGet, "/api/opportunities/z", "", "id", "z").Code)
}

func TestOpportunityHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"valid", `{"status":"purchased","notes":"two units"}`, nil, http.StatusOK},
		{"missing status", `{"notes":"x"}`, nil, http.StatusBadRequest},
		{"back to new", `{"status":"new"}`, nil, http.StatusBadRequest},
		{"unknown field", `{"status":"acted","extra":1}`, nil, http.StatusBadRequest},
		{"malformed", `{"status":`, nil, http.StatusBadRequest},
		{"already terminal", `{"status":"skipped"}`, fmt.Errorf("x: %w", domain.ErrInvalidTransition), http.StatusConflict},
		{"store failure", `{"status":"skipped"}`, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeOpps{opps: []domain.Opportunity{{ID: "a", Status: domain.StatusNew}}, err: tt.err}
			h := NewOpportunityHandler(svc, quiet)

			rec := do(h.UpdateStatus, http.MethodPatch, "/api/opportunities/a/status", tt.body, "id", "a")

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestOpportunityHandler_UpdateStatusReturnsOpportunity(t *testing.T) {
	svc := &fakeOpps{opps: []domain.Opportunity{{ID: "a", Status: domain.StatusNew}}}
	h := NewOpportunityHandler(svc, quiet)

	rec := do(h.UpdateStatus, http.MethodPatch, "/", `{"status":"acted","notes":"listed"}`, "id", "a")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "acted", body["status"])
	assert.Equal(t, "listed", body["notes"])
	assert.Equal(t, domain.StatusActed, svc.transitionTo)
}

type fakeScan struct {
	keywords []string
	err      error
}

func (f *fakeScan) ScanAll(_ context.Context, keywords []string) (service.ScanReport, error) {
	f.keywords = keywords
	return service.ScanReport{}, f.err
}

func TestScanHandler(t *testing.T) {
	t.Run("defaults when body is empty", func(t *testing.T) {
		svc := &fakeScan{}
		rec := do(NewScanHandler(svc, []string{"iphone"}, quiet).Scan, http.MethodPost, "/api/scan", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"iphone"}, svc.keywords)
	})

	t.Run("request keywords are trimmed", func(t *testing.T) {
		svc := &fakeScan{}
		rec := do(NewScanHandler(svc, []string{"iphone"}, quiet).Scan, http.MethodPost, "/api/scan", `{"keywords":[" lego ","ps5"]}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"lego", "ps5"}, svc.keywords)
	})

	t.Run("empty keyword rejected", func(t *testing.T) {
		rec := do(NewScanHandler(&fakeScan{}, nil, quiet).Scan, http.MethodPost, "/api/scan", `{"keywords":[""]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "required")
	})

	t.Run("nothing to scan", func(t *testing.T) {
		rec := do(NewScanHandler(&fakeScan{}, nil, quiet).Scan, http.MethodPost, "/api/scan", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("scan already running", func(t *testing.T) {
		svc := &fakeScan{err: fmt.Errorf("scan_service: %w", domain.ErrLockHeld)}
		rec := do(NewScanHandler(svc, []string{"iphone"}, quiet).Scan, http.MethodPost, "/api/scan", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

type fakeDecisions struct {
	prefs    domain.Preferences
	criteria domain.DecisionCriteria
}

func (f *fakeDecisions) Plan(_ context.Context, prefs domain.Preferences, criteria domain.DecisionCriteria) (service.Plan, error) {
	f.prefs, f.criteria = prefs, criteria
	if err := criteria.Validate(); err != nil {
		return service.Plan{}, err
	}
	return service.Plan{Buys: 1}, nil
}

func TestDecisionHandler_AppliesOverrides(t *testing.T) {
	// Arrange
	svc := &fakeDecisions{}
	h := NewDecisionHandler(svc, domain.DefaultPreferences(), domain.DefaultDecisionCriteria(decimal.NewFromInt(1000)), quiet)
	body := `{"risk_tolerance":"high","max_capital":250,"min_composite_score":40}`

	// Act
	rec := do(h.Plan, http.MethodPost, "/api/decisions", body)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ToleranceHigh, svc.prefs.RiskTolerance())
	assert.Equal(t, domain.PriorityBalanced, svc.prefs.ProfitPriority())
	assert.True(t, decimal.NewFromInt(250).Equal(svc.criteria.MaxCapital))
	assert.InDelta(t, 40.0, svc.criteria.MinCompositeScore, 1e-9)
	assert.InDelta(t, 15.0, svc.criteria.MaxRiskScore, 1e-9)
}

func TestDecisionHandler_RejectsInvalidInput(t *testing.T) {
	h := NewDecisionHandler(&fakeDecisions{}, domain.DefaultPreferences(), domain.DefaultDecisionCriteria(decimal.NewFromInt(1000)), quiet)

	for _, body := range []string{
		`{"risk_tolerance":"reckless"}`,
		`{"max_capital":-5}`,
		`{"min_composite_score":101}`,
	} {
		rec := do(h.Plan, http.MethodPost, "/api/decisions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

type fakeBlacklist struct {
	added   []domain.BlacklistEntry
	removed []string
}

func (f *fakeBlacklist) Add(_ context.Context, e domain.BlacklistEntry) error {
	f.added = append(f.added, e)
	return nil
}

func (f *fakeBlacklist) Remove(_ context.Context, p domain.Platform, id string) error {
	if id == "unknown" {
		return domain.ErrNotFound
	}
	f.removed = append(f.removed, string(p)+"/"+id)
	return nil
}

func (f *fakeBlacklist) List(context.Context) ([]domain.BlacklistEntry, error) { return f.added, nil }

func TestBlacklistHandler(t *testing.T) {
	svc := &fakeBlacklist{}
	h := NewBlacklistHandler(svc, quiet)

	rec := do(h.Add, http.MethodPost, "/api/blacklist", `{"platform":"etsy","seller_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h.Add, http.MethodPost, "/api/blacklist", `{"platform":"ebay","seller_id":"scammer","reason":"counterfeits"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.added, 1)
	assert.Equal(t, domain.PlatformEbay, svc.added[0].Platform)

	rec = do(h.List, http.MethodGet, "/api/blacklist", "")
	assert.Len(t, decode(t, rec)["sellers"], 1)

	rec = do(h.Remove, http.MethodDelete, "/", "", "platform", "EBAY", "seller", "scammer")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"ebay/scammer"}, svc.removed)

	rec = do(h.Remove, http.MethodDelete, "/", "", "platform", "etsy", "seller", "scammer")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h.Remove, http.MethodDelete, "/", "", "platform", "amazon", "seller", "unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeReports struct{ days, limit int }

func (f *fakeReports) Performance(_ context.Context, days int) (domain.PerformanceSummary, error) {
	f.days = days
	return domain.PerformanceSummary{Days: days}, nil
}

func (f *fakeReports) TopKeywords(_ context.Context, limit int) ([]domain.KeywordStats, error) {
	f.limit = limit
	return nil, nil
}

func (f *fakeReports) Build(_ context.Context, days int) (service.Report, error) {
	f.days = days
	return service.Report{}, nil
}

func TestReportHandler_ClampsQuery(t *testing.T) {
	svc := &fakeReports{}
	h := NewReportHandler(svc, quiet)

	do(h.Performance, http.MethodGet, "/api/reports/performance?days=9999", "")
	assert.Equal(t, 365, svc.days)

	do(h.Performance, http.MethodGet, "/api/reports/performance?days=abc", "")
	assert.Equal(t, 30, svc.days)

	rec := do(h.TopKeywords, http.MethodGet, "/api/keywords/top?limit=5", "")
	assert.Equal(t, 5, svc.limit)
	assert.Equal(t, []any{}, decode(t, rec)["keywords"])
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	ok := NewHealthHandler(map[string]Pinger{"postgres": pinger{}}, quiet)
	rec := do(ok.HealthCheck, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	bad := NewHealthHandler(map[string]Pinger{"postgres": pinger{}, "redis": pinger{errors.New("refused")}}, quiet)
	rec = do(bad.HealthCheck, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "unavailable"}, body["dependencies"])
}

type fakeArchives struct {
	kind  domain.ArchiveKind
	files []domain.ArchiveFile
	err   error
}

func (f *fakeArchives) ListArchives(_ context.Context, kind domain.ArchiveKind) ([]domain.ArchiveFile, error) {
	f.kind = kind
	return f.files, f.err
}

func TestArchiveHandler(t *testing.T) {
	svc := &fakeArchives{files: []domain.ArchiveFile{
		{Kind: domain.ArchiveOpportunities, Key: "archive/opportunities/2025-01.jsonl", Month: "2025-01", Size: 42},
	}}
	h := NewArchiveHandler(svc, quiet)

	rec := do(h.List, http.MethodGet, "/api/archives?kind=opportunities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ArchiveOpportunities, svc.kind)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = do(h.List, http.MethodGet, "/api/archives?kind=orders", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.files = nil
	rec = do(h.List, http.MethodGet, "/api/archives", "")
	assert.Equal(t, domain.ArchiveKind(""), svc.kind)
	assert.Equal(t, []any{}, decode(t, rec)["archives"])

	svc.err = errors.New("bucket gone")
	rec = do(h.List, http.MethodGet, "/api/archives", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeAuditLog struct {
	prefix string
	opts   domain.ListOpts
}

func (f *fakeAuditLog) List(_ context.Context, prefix string, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	f.prefix, f.opts = prefix, opts
	return []domain.AuditEntry{{ID: 3, Event: "opportunity.status"}}, nil
}

func TestAuditHandler_List(t *testing.T) {
	store := &fakeAuditLog{}
	h := NewAuditHandler(store, quiet)

	rec := do(h.List, http.MethodGet, "/api/audit?event=opportunity.&limit=5&since=2025-02-01", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "opportunity.", store.prefix)
	assert.Equal(t, 5, store.opts.Limit)
	require.NotNil(t, store.opts.Since)
	assert.Equal(t, "2025-02-01", store.opts.Since.Format("2006-01-02"))
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(h.List, http.MethodGet, "/api/audit?until=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
