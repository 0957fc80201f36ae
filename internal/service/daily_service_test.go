package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mover-brief/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var runDay = time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)

type stubProvider struct {
	outcomes []domain.ActualOutcome
	err      error
}

func (s *stubProvider) FetchOutcomes(ctx context.Context, tickers []string) ([]domain.ActualOutcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.outcomes, nil
}

type stubSnapshots struct {
	snapshot *domain.PredictionSnapshot
	saved    []domain.PredictionSnapshot
	getErr   error
}

func (s *stubSnapshots) SaveSnapshot(ctx context.Context, snapshot domain.PredictionSnapshot) error {
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *stubSnapshots) GetSnapshot(ctx context.Context, asOfDate time.Time) (*domain.PredictionSnapshot, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.snapshot, nil
}

type stubOutcomes struct {
	stored    []domain.ActualOutcome
	upserted  []domain.ActualOutcome
	upsertErr error
}

func (s *stubOutcomes) UpsertOutcomes(ctx context.Context, outcomes []domain.ActualOutcome) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, outcomes...)
	return nil
}

func (s *stubOutcomes) GetOutcomes(ctx context.Context, observedDate time.Time) ([]domain.ActualOutcome, error) {
	return s.stored, nil
}

type stubWeights struct {
	table   domain.WeightTable
	saved   domain.WeightTable
	loadErr error
	saveErr error
}

func (s *stubWeights) Load(ctx context.Context) (domain.WeightTable, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.table == nil {
		return domain.DefaultWeights(), nil
	}
	return s.table, nil
}

func (s *stubWeights) Save(ctx context.Context, table domain.WeightTable) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = table
	return nil
}

type stubEvaluator struct {
	result  domain.EvaluationResult
	updated domain.WeightTable
	err     error
	report  domain.EvaluationReport
}

func (s *stubEvaluator) Evaluate(
	ctx context.Context,
	prior *domain.PredictionSnapshot,
	outcomes []domain.ActualOutcome,
	universe []string,
	weights domain.WeightTable,
) (domain.EvaluationResult, domain.WeightTable, error) {
	if s.err != nil {
		return domain.EvaluationResult{}, nil, s.err
	}
	updated := s.updated
	if updated == nil {
		updated = weights
	}
	return s.result, updated, nil
}

func (s *stubEvaluator) BuildReport(result domain.EvaluationResult, weights domain.WeightTable) domain.EvaluationReport {
	report := s.report
	report.HistoricalPerformance.CurrentWeights = weights
	return report
}

type stubGenerator struct {
	brief domain.Brief
	err   error
	calls int
}

func (s *stubGenerator) Generate(
	ctx context.Context,
	briefDate time.Time,
	report domain.EvaluationReport,
	movers domain.MoverSummary,
) (domain.Brief, error) {
	s.calls++
	if s.err != nil {
		return domain.Brief{}, s.err
	}
	return s.brief, nil
}

type stubBriefs struct {
	saved  []domain.Brief
	latest *domain.Brief
}

func (s *stubBriefs) SaveBrief(ctx context.Context, brief domain.Brief) (*domain.Brief, error) {
	s.saved = append(s.saved, brief)
	out := brief
	out.ID = int64(len(s.saved))
	return &out, nil
}

func (s *stubBriefs) LatestBrief(ctx context.Context) (*domain.Brief, error) {
	return s.latest, nil
}

type stubNotifier struct {
	sent []domain.Brief
	err  error
}

func (s *stubNotifier) SendBrief(ctx context.Context, brief domain.Brief) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, brief)
	return nil
}

type fakeRedis struct {
	data map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func testUniverse() []string {
	return []string{"AAPL", "MSFT", "NVDA"}
}

func sampleOutcomes() []domain.ActualOutcome {
	day := runDay.Truncate(24 * time.Hour)
	return []domain.ActualOutcome{
		{Ticker: "AAPL", Close: 205, ActualPctChange: 2.5, ObservedDate: day},
		{Ticker: "MSFT", Close: 410, ActualPctChange: -1.8, ObservedDate: day},
		{Ticker: "NVDA", Close: 900, ActualPctChange: 0.3, ObservedDate: day},
	}
}

func sampleSnapshot() *domain.PredictionSnapshot {
	prior := runDay.Truncate(24 * time.Hour).AddDate(0, 0, -1)
	return &domain.PredictionSnapshot{
		AsOfDate: prior,
		Predictions: []domain.Prediction{
			{Ticker: "AAPL", PredictedDirection: domain.DirectionUp, PredictedMagnitude: 2.0, Category: domain.CategoryEarnings, AsOfDate: prior},
		},
	}
}

type fixture struct {
	provider  *stubProvider
	snapshots *stubSnapshots
	outcomes  *stubOutcomes
	weights   *stubWeights
	evaluator *stubEvaluator
	generator *stubGenerator
	briefs    *stubBriefs
	notifier  *stubNotifier
	redis     *fakeRedis
	svc       *DailyService
}

func newFixture() *fixture {
	f := &fixture{
		provider:  &stubProvider{outcomes: sampleOutcomes()},
		snapshots: &stubSnapshots{snapshot: sampleSnapshot()},
		outcomes:  &stubOutcomes{},
		weights:   &stubWeights{},
		evaluator: &stubEvaluator{
			result: domain.EvaluationResult{TruePositives: 1},
			report: domain.EvaluationReport{PredictionsEvaluated: 1, CorrectPredictions: 1},
		},
		generator: &stubGenerator{brief: domain.Brief{Content: "good day"}},
		briefs:    &stubBriefs{},
		notifier:  &stubNotifier{},
		redis:     newFakeRedis(),
	}
	f.svc = NewDailyService(
		trace.NewNoopTracerProvider().Tracer("test"),
		f.provider, f.snapshots, f.outcomes, f.weights,
		f.evaluator, f.generator, f.briefs, f.notifier, f.redis,
		DailyConfig{Universe: testUniverse(), MoveThresholdPct: 1.0},
	)
	return f
}

func TestRunDailyHappyPath(t *testing.T) {
	f := newFixture()
	f.evaluator.updated = domain.WeightTable{domain.CategoryEarnings: 1.05}

	result, err := f.svc.RunDaily(context.Background(), runDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutcomesCollected != 3 {
		t.Fatalf("expected 3 outcomes, got %d", result.OutcomesCollected)
	}
	if len(f.outcomes.upserted) != 3 {
		t.Fatalf("expected outcomes persisted, got %d", len(f.outcomes.upserted))
	}
	if f.weights.saved[domain.CategoryEarnings] != 1.05 {
		t.Fatalf("expected updated weights saved, got %+v", f.weights.saved)
	}
	if !result.BriefGenerated || len(f.briefs.saved) != 1 {
		t.Fatal("expected brief to be generated and saved")
	}
	if len(f.notifier.sent) != 1 {
		t.Fatal("expected brief to be pushed")
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected run errors: %v", result.Errors)
	}
}

func TestRunDailyCachesReport(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.RunDaily(context.Background(), runDay); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := f.svc.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report == nil || report.PredictionsEvaluated != 1 {
		t.Fatalf("expected cached report, got %+v", report)
	}
}

func TestRunDailyNoPriorSnapshotSkipsWeightsAndBrief(t *testing.T) {
	f := newFixture()
	f.snapshots.snapshot = nil

	result, err := f.svc.RunDaily(context.Background(), runDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.weights.saved != nil {
		t.Fatalf("expected no weight save on baseline day, got %+v", f.weights.saved)
	}
	if result.BriefGenerated || f.generator.calls != 0 {
		t.Fatal("expected no brief on baseline day")
	}
}

func TestRunDailyProviderFailureFallsBackToStore(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("stooq down")
	f.outcomes.stored = sampleOutcomes()

	result, err := f.svc.RunDaily(context.Background(), runDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutcomesCollected != 3 {
		t.Fatalf("expected stored outcomes, got %d", result.OutcomesCollected)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected fetch error to be recorded")
	}
}

func TestRunDailyProviderFailureNoFallback(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("stooq down")

	if _, err := f.svc.RunDaily(context.Background(), runDay); err == nil {
		t.Fatal("expected error when no outcomes are available")
	}
}

func TestRunDailyEvaluatorFailureAborts(t *testing.T) {
	f := newFixture()
	f.evaluator.err = errors.New("history write failed")

	if _, err := f.svc.RunDaily(context.Background(), runDay); err == nil {
		t.Fatal("expected error")
	}
	if f.weights.saved != nil {
		t.Fatal("expected no weight save after failed evaluation")
	}
}

func TestRunDailyWeightSaveFailureAborts(t *testing.T) {
	f := newFixture()
	f.weights.saveErr = errors.New("redis down")

	if _, err := f.svc.RunDaily(context.Background(), runDay); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunDailyBriefFailureNonFatal(t *testing.T) {
	f := newFixture()
	f.generator.err = errors.New("api down")

	result, err := f.svc.RunDaily(context.Background(), runDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BriefGenerated {
		t.Fatal("expected no brief")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected brief error to be recorded")
	}
}

func TestIngestSnapshotValidates(t *testing.T) {
	f := newFixture()

	err := f.svc.IngestSnapshot(context.Background(), domain.PredictionSnapshot{})
	if err == nil {
		t.Fatal("expected error for missing as_of_date")
	}

	bad := *sampleSnapshot()
	bad.Predictions[0].PredictedDirection = "sideways"
	if err := f.svc.IngestSnapshot(context.Background(), bad); err == nil {
		t.Fatal("expected error for invalid direction")
	}

	good := *sampleSnapshot()
	good.Predictions[0].PredictedDirection = domain.DirectionUp
	if err := f.svc.IngestSnapshot(context.Background(), good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.snapshots.saved) != 1 {
		t.Fatalf("expected snapshot saved, got %d", len(f.snapshots.saved))
	}
}

func TestBuildMoverSummary(t *testing.T) {
	day := runDay.Truncate(24 * time.Hour)
	outcomes := []domain.ActualOutcome{
		{Ticker: "AAPL", ActualPctChange: 2.5, Close: 205},
		{Ticker: "NVDA", ActualPctChange: 4.1, Close: 900},
		{Ticker: "MSFT", ActualPctChange: -1.8, Close: 410},
		{Ticker: "GOOG", ActualPctChange: 0.4, Close: 150},
	}

	summary := BuildMoverSummary(day, outcomes, 1.0)
	if summary.TotalTracked != 4 {
		t.Fatalf("expected 4 tracked, got %d", summary.TotalTracked)
	}
	if len(summary.Gainers) != 2 || summary.Gainers[0].Ticker != "NVDA" {
		t.Fatalf("unexpected gainers: %+v", summary.Gainers)
	}
	if len(summary.Losers) != 1 || summary.Losers[0].Ticker != "MSFT" {
		t.Fatalf("unexpected losers: %+v", summary.Losers)
	}
}

func TestMoversForUsesStoredOutcomes(t *testing.T) {
	f := newFixture()
	f.outcomes.stored = sampleOutcomes()

	summary, err := f.svc.MoversFor(context.Background(), runDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Gainers) != 1 || summary.Gainers[0].Ticker != "AAPL" {
		t.Fatalf("unexpected gainers: %+v", summary.Gainers)
	}
}
