package app

import (
	"context"
	"math/rand"
	"time"

	"certquiz-service/internal/domain"
)

// BankRepository loads the question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) (*domain.Bank, error)
}

// Phase is the top-level application state.
type Phase int

const (
	// PhaseStart is the configuration screen: no run in flight.
	PhaseStart Phase = iota
	// PhaseQuiz is an in-progress run.
	PhaseQuiz
	// PhaseResult is a completed run awaiting retry.
	PhaseResult
)

// Orchestrator drives the session engine through the application-level
// transitions: start, resume, complete, retry. It owns the single persisted
// slot; the engine's in-memory state remains the source of truth and the
// store is a best-effort mirror.
type Orchestrator struct {
	banks  BankRepository
	store  *SessionStore
	rnd    *rand.Rand
	now    func() time.Time
	phase  Phase
	engine *Engine
	result *domain.QuizResult
}

func NewOrchestrator(banks BankRepository, store *SessionStore, rnd *rand.Rand) *Orchestrator {
	return &Orchestrator{
		banks: banks,
		store: store,
		rnd:   rnd,
		now:   time.Now,
	}
}

// NewOrchestratorWithClock is test-only for deterministic timestamps.
func NewOrchestratorWithClock(banks BankRepository, store *SessionStore, rnd *rand.Rand, now func() time.Time) *Orchestrator {
	o := NewOrchestrator(banks, store, rnd)
	o.now = now
	return o
}

// Phase returns the current application phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Engine exposes the running engine, nil outside PhaseQuiz.
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// Result returns the completed run's result, nil outside PhaseResult.
func (o *Orchestrator) Result() *domain.QuizResult {
	return o.result
}

// ResumableSession peeks at the persisted slot for the start surface.
func (o *Orchestrator) ResumableSession(ctx context.Context) (*domain.QuizSession, bool) {
	return o.store.LoadSession(ctx)
}

// Start begins a fresh run from a configuration. Any previously persisted
// session is discarded first; there is exactly one slot. An empty filtered
// set is the degenerate "nothing to do" outcome, not an error in the store:
// nothing is persisted for it.
func (o *Orchestrator) Start(ctx context.Context, config domain.QuizConfig) error {
	if len(config.Categories) == 0 || config.QuestionCount < 0 {
		return domain.ErrInvalidConfig
	}
	bank, err := o.banks.GetBank(ctx)
	if err != nil {
		return err
	}

	o.store.ClearSession(ctx)
	engine, err := NewEngineWithClock(bank, config, o.rnd, o.now)
	if err != nil {
		return err
	}

	o.engine = engine
	o.result = nil
	o.phase = PhaseQuiz
	o.store.SaveSession(ctx, engine.Session())
	return nil
}

// Resume restores the persisted session, if any. The frozen question
// sequence is reconstructed verbatim; selection is never recomputed.
func (o *Orchestrator) Resume(ctx context.Context) error {
	session, ok := o.store.LoadSession(ctx)
	if !ok {
		return domain.ErrNoSession
	}
	bank, err := o.banks.GetBank(ctx)
	if err != nil {
		return err
	}

	engine, err := ResumeEngineWithClock(bank, session, o.now)
	if err != nil {
		return err
	}

	o.engine = engine
	o.result = nil
	o.phase = PhaseQuiz
	return nil
}

// Discard clears the persisted slot without starting a run.
func (o *Orchestrator) Discard(ctx context.Context) {
	o.store.ClearSession(ctx)
}

// Select toggles a choice on the current question. Selection alone is not
// persisted.
func (o *Orchestrator) Select(label string) error {
	if o.engine == nil {
		return domain.ErrNoSession
	}
	return o.engine.Select(label)
}

// Confirm scores the current selection and persists the updated session.
func (o *Orchestrator) Confirm(ctx context.Context) (bool, error) {
	if o.engine == nil {
		return false, domain.ErrNoSession
	}
	correct, err := o.engine.Confirm()
	if err != nil {
		return false, err
	}
	o.store.SaveSession(ctx, o.engine.Session())
	return correct, nil
}

// Advance moves to the next question, persisting the new pointer. When the
// run completes it deletes the slot, appends the history entry and moves to
// PhaseResult; a completed run leaves no resumable trace.
func (o *Orchestrator) Advance(ctx context.Context) (*domain.QuizResult, error) {
	if o.engine == nil {
		return nil, domain.ErrNoSession
	}
	result, err := o.engine.Advance()
	if err != nil {
		return nil, err
	}
	if result == nil {
		o.store.SaveSession(ctx, o.engine.Session())
		return nil, nil
	}

	o.store.ClearSession(ctx)
	o.store.AppendHistory(ctx, domain.HistoryEntry{
		Date:           result.EndTime.Format(time.RFC3339),
		CorrectRate:    Rate(result.CorrectCount, result.TotalQuestions),
		TotalQuestions: result.TotalQuestions,
		Categories:     result.Config.Categories,
	})
	o.result = result
	o.engine = nil
	o.phase = PhaseResult
	return result, nil
}

// Report builds the final report for the completed run.
func (o *Orchestrator) Report(ctx context.Context) (Report, error) {
	if o.result == nil {
		return Report{}, domain.ErrNoResult
	}
	bank, err := o.banks.GetBank(ctx)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(o.result, bank), nil
}

// History returns the capped study log, newest last.
func (o *Orchestrator) History(ctx context.Context) []domain.HistoryEntry {
	return o.store.LoadHistory(ctx)
}

// Retry returns to the start phase, dropping the completed result.
func (o *Orchestrator) Retry() {
	o.engine = nil
	o.result = nil
	o.phase = PhaseStart
}
