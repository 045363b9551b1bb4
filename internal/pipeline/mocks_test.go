package pipeline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/common/llm"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
)

// callLog records stage invocation order across the stage mocks.
type callLog struct {
	mu    sync.Mutex
	order []model.StageName
}

func (c *callLog) add(s model.StageName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append(c.order, s)
}

type mockPlanner struct {
	log    *callLog
	planFn func(ctx context.Context, s model.SupplierIdentity) (model.EvaluationPlan, error)
}

func (m *mockPlanner) Plan(ctx context.Context, s model.SupplierIdentity) (model.EvaluationPlan, error) {
	m.log.add(model.StagePlanner)
	return m.planFn(ctx, s)
}

type mockDocument struct {
	log       *callLog
	analyzeFn func(ctx context.Context, s model.SupplierIdentity) (model.DocumentAnalysis, error)
}

func (m *mockDocument) Analyze(ctx context.Context, s model.SupplierIdentity) (model.DocumentAnalysis, error) {
	m.log.add(model.StageDocument)
	return m.analyzeFn(ctx, s)
}

type mockPolicy struct {
	log      *callLog
	answerFn func(ctx context.Context, plan model.EvaluationPlan) (model.RAGAnswers, error)
	seenPlan model.EvaluationPlan
}

func (m *mockPolicy) Answer(ctx context.Context, plan model.EvaluationPlan) (model.RAGAnswers, error) {
	m.log.add(model.StagePolicy)
	m.seenPlan = plan
	return m.answerFn(ctx, plan)
}

type mockExternal struct {
	log      *callLog
	gatherFn func(ctx context.Context, s model.SupplierIdentity) (model.ExternalIntelligence, error)
}

func (m *mockExternal) Gather(ctx context.Context, s model.SupplierIdentity) (model.ExternalIntelligence, error) {
	m.log.add(model.StageExternal)
	return m.gatherFn(ctx, s)
}

type mockDecision struct {
	log       *callLog
	decideFn  func(ctx context.Context, state model.EvaluationState) (model.FinalDecision, error)
	seenState model.EvaluationState
}

func (m *mockDecision) Decide(ctx context.Context, state model.EvaluationState) (model.FinalDecision, error) {
	m.log.add(model.StageDecision)
	m.seenState = state
	return m.decideFn(ctx, state)
}

type observed struct {
	stage model.StageName
	err   error
}

type recordingObserver struct {
	events []observed
}

func (r *recordingObserver) OnStageComplete(_ context.Context, stage model.StageName, _ *model.EvaluationState, err error) {
	r.events = append(r.events, observed{stage: stage, err: err})
}

// schemaLLM answers each reasoning call by schema name.
type schemaLLM struct {
	mu        sync.Mutex
	responses map[string]any
	calls     []string
}

func (s *schemaLLM) Chat(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.SchemaName)
	v, ok := s.responses[req.SchemaName]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no response for %s", llm.ErrDecode, req.SchemaName)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, err
	}
	return &llm.Response{PromptTokens: 10, CompletionTokens: 10}, nil
}

func (s *schemaLLM) Model() string { return "test-model" }

type emptyRetriever struct{}

func (emptyRetriever) Search(context.Context, string, int, float64) ([]provider.Passage, error) {
	return nil, nil
}

type nopReader struct{}

func (nopReader) Read(context.Context, string) (*provider.DocumentText, error) {
	return nil, fmt.Errorf("unexpected read")
}

type nopTables struct{}

func (nopTables) ExtractTables(context.Context, string) (*provider.TableResult, error) {
	return &provider.TableResult{}, nil
}

type stubVerifier struct {
	record *model.RegistryRecord
}

func (s stubVerifier) Lookup(_ context.Context, q provider.RegistryQuery) (*model.RegistryRecord, error) {
	rec := *s.record
	rec.CompanyNumber = q.RegistrationNumber
	return &rec, nil
}

func (stubVerifier) Source(string) string { return "UK Companies House" }
func (stubVerifier) Supports(c string) bool { return c == "UK" }

type stubNews struct{}

func (stubNews) Search(context.Context, string, time.Duration, int) ([]model.NewsArticle, error) {
	return []model.NewsArticle{}, nil
}

func (stubNews) Source() string { return "NewsAPI" }

type stubSanctions struct {
	blocked map[string]bool
}

func (s stubSanctions) Match(_ context.Context, name string) (model.SanctionsMatch, error) {
	m := model.SanctionsMatch{Name: name, RiskLevel: model.SanctionsClear, MatchedEntries: []string{}}
	if s.blocked[name] {
		m.RiskLevel = model.SanctionsBlocked
		m.MatchedEntries = []string{name}
	}
	return m, nil
}

func (stubSanctions) Sources() []string { return []string{"OFAC SDN List"} }

type stubWatchlist struct{}

func (stubWatchlist) Check(context.Context, string, string, string) (model.WatchlistCheck, error) {
	return model.WatchlistCheck{Status: model.WatchlistClear, Matches: []model.WatchlistHit{}}, nil
}
