package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscout/internal/arbitrage"
	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/fees"
	"github.com/alanyoungcy/arbscout/internal/matching"
	"github.com/alanyoungcy/arbscout/internal/notify"
	"github.com/alanyoungcy/arbscout/internal/ranking"
	"github.com/alanyoungcy/arbscout/internal/risk"
)

var fixedNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newAnalyzer(t *testing.T) *arbitrage.Analyzer {
	t.Helper()
	model, err := fees.NewModel()
	require.NoError(t, err)
	n := 0
	builder := arbitrage.NewBuilder(model,
		arbitrage.WithClock(func() time.Time { return fixedNow }),
		arbitrage.WithIDGenerator(func() string { n++; return fmt.Sprintf("opp-%d", n) }),
	)
	th := domain.DefaultProfitThresholds()
	th.MinROIPercentage = 5
	a, err := arbitrage.NewAnalyzer(th, builder, matching.NewMatcher(matching.WithWorkers(1)))
	require.NoError(t, err)
	return a
}

func ebayListings() []domain.Listing {
	return []domain.Listing{
		{
			Platform: domain.PlatformEbay, ProductID: "e-1", Title: "iPhone 12 Pro Max 256GB",
			Price: dec("600"), Shipping: dec("5"), SellerID: "phones4less", SellerRating: 4.5, Stock: 5,
		},
		{
			Platform: domain.PlatformEbay, ProductID: "e-2", Title: "Nintendo Switch OLED Console White",
			Price: dec("200"), SellerID: "gamesrus", SellerRating: 4.8, Stock: 10,
		},
	}
}

func amazonListings() []domain.Listing {
	return []domain.Listing{
		{
			Platform: domain.PlatformAmazon, ProductID: "a-1", Title: "iPhone 12 Pro Max 256GB",
			Price: dec("800"), SellerID: "amz", SellerRating: 4.8, Stock: 10,
		},
		{
			Platform: domain.PlatformAmazon, ProductID: "a-2", Title: "Nintendo Switch OLED Console White",
			Price: dec("300"), SellerID: "amz", SellerRating: 4.8, Stock: 10,
		},
	}
}

type scanFixture struct {
	ebay, amazon *stubSource
	opps         *memOpps
	prices       *memPrices
	blacklist    *memBlacklist
	keywords     *memKeywords
	perf         *memPerf
	cache        *memCache
	lock         *fakeLock
	bus          *memBus
	audit        *memAudit
	notifier     *fakeNotifier
	svc          *ScanService
}

func newScanFixture(t *testing.T, cfg ScanConfig) *scanFixture {
	t.Helper()
	f := &scanFixture{
		ebay:      &stubSource{platform: domain.PlatformEbay, listings: ebayListings()},
		amazon:    &stubSource{platform: domain.PlatformAmazon, listings: amazonListings()},
		opps:      &memOpps{},
		prices:    &memPrices{},
		blacklist: &memBlacklist{},
		keywords:  &memKeywords{},
		perf:      &memPerf{},
		cache:     newMemCache(),
		lock:      &fakeLock{},
		bus:       newMemBus(),
		audit:     &memAudit{},
		notifier:  &fakeNotifier{},
	}
	f.svc = NewScanService(ScanDeps{
		Sources:   []domain.ListingSource{f.ebay, f.amazon},
		Analyzer:  newAnalyzer(t),
		Opps:      f.opps,
		Prices:    f.prices,
		Blacklist: f.blacklist,
		Keywords:  f.keywords,
		Perf:      f.perf,
		Cache:     f.cache,
		Lock:      f.lock,
		Cooldown:  &fakeCooldown{},
		Bus:       f.bus,
		Audit:     f.audit,
		Notifier:  f.notifier,
	}, cfg, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestScanKeyword_FindsAndPersistsOpportunities(t *testing.T) {
	// Arrange
	f := newScanFixture(t, ScanConfig{})

	// Act
	res, err := f.svc.ScanKeyword(context.Background(), "  console ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "console", res.Keyword)
	assert.Equal(t, 2, res.Listings[domain.PlatformEbay])
	assert.Equal(t, 2, res.Listings[domain.PlatformAmazon])
	assert.Empty(t, res.Failed)

	require.Len(t, res.Opportunities, 2)
	assert.True(t, dec("70.75").Equal(res.Opportunities[0].NetProfit), "got %s", res.Opportunities[0].NetProfit)
	assert.True(t, dec("50.75").Equal(res.Opportunities[1].NetProfit), "got %s", res.Opportunities[1].NetProfit)
	for _, o := range res.Opportunities {
		assert.Equal(t, domain.PlatformEbay, o.SourcePlatform)
		assert.Equal(t, domain.PlatformAmazon, o.TargetPlatform)
	}

	assert.Equal(t, 2, res.Saved)
	assert.Len(t, f.opps.rows, 2)
	assert.Len(t, f.prices.recorded, 4)
	assert.Equal(t, 2, f.bus.published[domain.ChannelOpportunity])
	assert.Equal(t, 2, f.bus.streamed)

	// One alert per platform pair within the cooldown.
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notify.EventOpportunity, f.notifier.sent[0].event)
	assert.Contains(t, f.notifier.sent[0].body, "£70.75")

	require.Len(t, f.keywords.calls, 2)
	assert.Equal(t, keywordCall{"console", "ebay", 2, 2, 60.75}, f.keywords.calls[0])
	assert.Equal(t, keywordCall{"console", "amazon", 2, 0, 0}, f.keywords.calls[1])
}

func TestScanKeyword_FailingPlatformContributesNothing(t *testing.T) {
	f := newScanFixture(t, ScanConfig{})
	f.amazon.err = errors.New("503 service unavailable")

	res, err := f.svc.ScanKeyword(context.Background(), "iphone")

	require.NoError(t, err)
	assert.Equal(t, []domain.Platform{domain.PlatformAmazon}, res.Failed)
	assert.Zero(t, res.Listings[domain.PlatformAmazon])
	assert.Empty(t, res.Opportunities)
	assert.Empty(t, f.opps.rows)
}

func TestScanKeyword_DropsBlacklistedSellers(t *testing.T) {
	f := newScanFixture(t, ScanConfig{BlockedSellers: []string{"GamesRUs"}})
	f.blacklist.entries = []domain.BlacklistEntry{{Platform: domain.PlatformEbay, SellerID: "Phones4Less"}}

	res, err := f.svc.ScanKeyword(context.Background(), "iphone")

	require.NoError(t, err)
	assert.Zero(t, res.Listings[domain.PlatformEbay])
	assert.Empty(t, res.Opportunities)
}

func TestScanKeyword_UsesListingCache(t *testing.T) {
	f := newScanFixture(t, ScanConfig{})

	_, err := f.svc.ScanKeyword(context.Background(), "iphone")
	require.NoError(t, err)
	_, err = f.svc.ScanKeyword(context.Background(), "iphone")
	require.NoError(t, err)

	assert.Equal(t, 1, f.ebay.calls)
	assert.Equal(t, 1, f.amazon.calls)
}

func TestScanKeyword_RejectsEmptyKeyword(t *testing.T) {
	f := newScanFixture(t, ScanConfig{})

	_, err := f.svc.ScanKeyword(context.Background(), "   ")

	assert.Error(t, err)
}

func TestScanAll_RecordsPerformanceAndReleasesLock(t *testing.T) {
	// Arrange
	f := newScanFixture(t, ScanConfig{})

	// Act
	report, err := f.svc.ScanAll(context.Background(), []string{"iphone", "switch"})

	// Assert
	require.NoError(t, err)
	assert.Len(t, report.Keywords, 2)
	assert.Equal(t, 4, report.Summary.TotalOpportunities)
	assert.False(t, f.lock.held)
	assert.Equal(t, 1, f.lock.released)

	require.Len(t, f.perf.records, 1)
	rec := f.perf.records[0]
	assert.Equal(t, 4, rec.OpportunitiesFound)
	assert.True(t, report.Summary.TotalProfit.Equal(rec.TotalProfit))
	assert.Positive(t, rec.ROIPercentage)
	assert.Equal(t, 1, f.bus.published[domain.ChannelScan])
	assert.Contains(t, f.audit.events, "scan.completed")
}

func TestScanAll_LockHeld(t *testing.T) {
	f := newScanFixture(t, ScanConfig{})
	f.lock.held = true

	_, err := f.svc.ScanAll(context.Background(), []string{"iphone"})

	assert.ErrorIs(t, err, domain.ErrLockHeld)
	assert.Zero(t, f.ebay.calls)
}

func TestScanAll_HonoursCancellationBetweenKeywords(t *testing.T) {
	f := newScanFixture(t, ScanConfig{KeywordDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := f.svc.ScanAll(ctx, []string{"iphone", "switch"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, report.Keywords, 1)
}

func seedOpportunities(t *testing.T) *memOpps {
	t.Helper()
	f := newScanFixture(t, ScanConfig{})
	_, err := f.svc.ScanKeyword(context.Background(), "iphone")
	require.NoError(t, err)
	return f.opps
}

func TestOpportunityService_Transition(t *testing.T) {
	opps := seedOpportunities(t)
	auditLog := &memAudit{}
	svc := NewOpportunityService(opps, auditLog, newMemBus(), dec("25"), nil)
	ctx := context.Background()

	got, err := svc.Transition(ctx, "opp-1", domain.StatusPurchased, "bought two")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPurchased, got.Status)
	assert.Equal(t, "bought two", got.Notes)
	assert.Equal(t, []string{"opportunity.status"}, auditLog.events)

	_, err = svc.Transition(ctx, "opp-1", domain.StatusSkipped, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Transition(ctx, "missing", domain.StatusSkipped, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpportunityService_SummaryAndExpire(t *testing.T) {
	opps := seedOpportunities(t)
	svc := NewOpportunityService(opps, &memAudit{}, nil, dec("60"), nil)
	ctx := context.Background()

	sum, err := svc.Summary(ctx, domain.StatusNew, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalOpportunities)
	assert.True(t, dec("121.5").Equal(sum.TotalProfit))
	assert.Equal(t, 1, sum.HighProfitCount)

	n, err := svc.ExpireBefore(ctx, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := svc.List(ctx, domain.StatusNew, domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestOpportunityService_CompetitionUniqueWhenAlone(t *testing.T) {
	opps := seedOpportunities(t)
	svc := NewOpportunityService(opps, nil, nil, dec("25"), nil)

	got, err := svc.Competition(context.Background(), "opp-1")

	require.NoError(t, err)
	assert.Equal(t, domain.PositionUnique, got.Position)
	assert.Equal(t, domain.CompetitionLow, got.CompetitionLevel)
}

func TestOpportunityService_CompetitionWindowSpansBothSides(t *testing.T) {
	at := func(id, profit string, offset time.Duration) domain.Opportunity {
		return domain.Opportunity{
			ID:           id,
			ProductTitle: "Apple AirPods Pro 2nd Gen",
			NetProfit:    dec(profit),
			Status:       domain.StatusNew,
			CreatedAt:    fixedNow.Add(offset),
		}
	}
	opps := &memOpps{rows: []domain.Opportunity{
		at("target", "20", 0),
		at("earlier", "30", -5*24*time.Hour),
		at("later", "40", 5*24*time.Hour),
		at("too-old", "90", -8*24*time.Hour),
		at("too-new", "90", 8*24*time.Hour),
	}}
	svc := NewOpportunityService(opps, nil, nil, dec("25"), nil)

	got, err := svc.Competition(context.Background(), "target")

	require.NoError(t, err)
	// Both neighbours five days away count; the eight-day ones do not.
	assert.Equal(t, 3, got.TotalCompetitors)
	assert.Equal(t, 3, got.ProfitRank)
	assert.Equal(t, domain.PositionBottom, got.Position)
	assert.InDelta(t, 35.0, got.AvgCompetitorProfit, 1e-9)
}

func TestDecisionService_Plan(t *testing.T) {
	// Arrange
	opps := seedOpportunities(t)
	prices := &memPrices{history: map[string][]domain.PricePoint{
		"ebay/e-1": {
			{Price: 600, RecordedAt: fixedNow.Add(-72 * time.Hour)},
			{Price: 600, RecordedAt: fixedNow.Add(-48 * time.Hour)},
			{Price: 600, RecordedAt: fixedNow.Add(-24 * time.Hour)},
		},
	}}
	bus := newMemBus()
	auditLog := &memAudit{}
	ranker := ranking.NewRanker(risk.NewAssessor(nil), ranking.WithClock(func() time.Time { return fixedNow }))
	svc := NewDecisionService(opps, prices, ranker, bus, auditLog, 30, nil)
	svc.now = func() time.Time { return fixedNow }
	criteria := domain.DefaultDecisionCriteria(dec("1000"))
	criteria.MinCompositeScore = 0

	// Act
	plan, err := svc.Plan(context.Background(), domain.DefaultPreferences(), criteria)

	// Assert
	require.NoError(t, err)
	assert.Len(t, plan.Ranked, 2)
	assert.Len(t, plan.Decisions, 2)
	assert.GreaterOrEqual(t, plan.Ranked[0].CompositeScore, plan.Ranked[1].CompositeScore)
	assert.True(t, plan.CapitalAllocated.LessThanOrEqual(criteria.MaxCapital))

	capital, profit := decimalTotals(plan.Decisions)
	assert.True(t, capital.Equal(plan.CapitalAllocated))
	assert.True(t, profit.Equal(plan.ExpectedProfit))
	assert.Equal(t, 1, bus.published[domain.ChannelDecision])
	assert.Equal(t, []string{"decision.plan"}, auditLog.events)
}

func decimalTotals(ds []domain.Decision) (decimal.Decimal, decimal.Decimal) {
	capital, profit := decimal.Zero, decimal.Zero
	for _, d := range ds {
		if d.Action == domain.ActionBuy {
			capital = capital.Add(d.CapitalRequired)
			profit = profit.Add(d.ExpectedProfit)
		}
	}
	return capital, profit
}

func TestDecisionService_RejectsInvalidCriteria(t *testing.T) {
	ranker := ranking.NewRanker(risk.NewAssessor(nil))
	svc := NewDecisionService(&memOpps{}, nil, ranker, nil, nil, 0, nil)

	_, err := svc.Plan(context.Background(), domain.DefaultPreferences(), domain.DecisionCriteria{})

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestReportService(t *testing.T) {
	opps := seedOpportunities(t)
	perf := &memPerf{summary: domain.PerformanceSummary{Scans: 4}}
	keywords := &memKeywords{top: []domain.KeywordStats{{Keyword: "iphone"}, {Keyword: "switch"}}}
	notifier := &fakeNotifier{}
	svc := NewReportService(perf, keywords, opps, notifier, dec("25"), nil)
	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	ctx := context.Background()

	sum, err := svc.Performance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Days)
	assert.Equal(t, 4, sum.Scans)
	assert.Equal(t, fixedNow.Add(time.Hour).AddDate(0, 0, -7), perf.since)

	report, err := svc.Build(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Performance.Days)
	assert.Equal(t, 2, report.Current.TotalOpportunities)
	assert.Len(t, report.TopKeywords, 2)

	require.NoError(t, svc.SendDailyDigest(ctx))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.EventDailySummary, notifier.sent[0].event)
	assert.Contains(t, notifier.sent[0].body, "• 2 opportunities found")
}

func TestBlacklistService(t *testing.T) {
	store := &memBlacklist{}
	auditLog := &memAudit{}
	svc := NewBlacklistService(store, auditLog, nil)
	ctx := context.Background()

	assert.Error(t, svc.Add(ctx, domain.BlacklistEntry{Platform: domain.PlatformEbay, SellerID: "  "}))
	require.NoError(t, svc.Add(ctx, domain.BlacklistEntry{Platform: domain.PlatformEbay, SellerID: " scammer ", Reason: "fake goods"}))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scammer", entries[0].SellerID)

	require.NoError(t, svc.Remove(ctx, domain.PlatformEbay, "scammer"))
	assert.ErrorIs(t, svc.Remove(ctx, domain.PlatformEbay, "scammer"), domain.ErrNotFound)
	assert.Equal(t, []string{"blacklist.add", "blacklist.remove"}, auditLog.events)
}
