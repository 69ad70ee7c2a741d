package app_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"certquiz-service/internal/app"
	"certquiz-service/internal/domain"
)

func TestSingleAnswerReplacement(t *testing.T) {
	engine := newTestEngine(t, configFor("A", "B"))

	if err := engine.Select("B"); err != nil {
		t.Fatalf("select B: %v", err)
	}
	if err := engine.Select("D"); err != nil {
		t.Fatalf("select D: %v", err)
	}
	selection := engine.Selection()
	if len(selection) != 1 || selection[0] != "D" {
		t.Fatalf("expected only D selected, got %v", selection)
	}
}

func TestSingleAnswerToggleOff(t *testing.T) {
	engine := newTestEngine(t, configFor("A"))

	if err := engine.Select("B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := engine.Select("B"); err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if len(engine.Selection()) != 0 {
		t.Fatalf("expected empty selection, got %v", engine.Selection())
	}
}

func TestMultiAnswerScoringOrderIndependent(t *testing.T) {
	// Question 4 has correctAnswer "AC"; clicking C before A must score correct.
	engine := newTestEngine(t, configFor("B"))
	advanceToMultiQuestion(t, engine)

	for _, label := range []string{"C", "A"} {
		if err := engine.Select(label); err != nil {
			t.Fatalf("select %s: %v", label, err)
		}
	}
	correct, err := engine.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !correct {
		t.Fatalf("expected [C A] to match correctAnswer AC")
	}
}

func TestMultiAnswerPartialSelectionIncorrect(t *testing.T) {
	engine := newTestEngine(t, configFor("B"))
	advanceToMultiQuestion(t, engine)

	if err := engine.Select("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	correct, err := engine.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if correct {
		t.Fatalf("expected partial selection to score incorrect")
	}
}

func TestConfirmEmptySelectionRejected(t *testing.T) {
	engine := newTestEngine(t, configFor("A"))

	if _, err := engine.Confirm(); !errors.Is(err, domain.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if len(engine.Session().Answers) != 0 {
		t.Fatalf("rejected confirm must not append a record")
	}
}

func TestSelectUnknownChoice(t *testing.T) {
	engine := newTestEngine(t, configFor("A"))

	if err := engine.Select("Z"); !errors.Is(err, domain.ErrUnknownChoice) {
		t.Fatalf("expected ErrUnknownChoice, got %v", err)
	}
}

func TestAdvanceBeforeConfirm(t *testing.T) {
	engine := newTestEngine(t, configFor("A"))

	if _, err := engine.Advance(); !errors.Is(err, domain.ErrNotAnswered) {
		t.Fatalf("expected ErrNotAnswered, got %v", err)
	}
}

func TestSelectAfterAnswered(t *testing.T) {
	engine := newTestEngine(t, configFor("A"))

	mustSelect(t, engine, "A")
	if _, err := engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := engine.Select("B"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if _, err := engine.Confirm(); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered on double confirm, got %v", err)
	}
}

func TestAnswerCountInvariant(t *testing.T) {
	engine := newTestEngine(t, configFor("A", "B"))

	_, total := engine.Progress()
	for i := 0; i < total; i++ {
		index, _ := engine.Progress()
		if engine.State() != app.StateAwaitingAnswer {
			t.Fatalf("question %d: expected awaiting state", i)
		}
		if got := len(engine.Session().Answers); got != index {
			t.Fatalf("awaiting at %d: expected %d answers, got %d", index, index, got)
		}

		mustSelect(t, engine, "A")
		if _, err := engine.Confirm(); err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
		if engine.State() != app.StateAnswered {
			t.Fatalf("question %d: expected answered state", i)
		}
		if got := len(engine.Session().Answers); got != index+1 {
			t.Fatalf("answered at %d: expected %d answers, got %d", index, index+1, got)
		}

		if _, err := engine.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if engine.State() != app.StateCompleted {
		t.Fatalf("expected completed state after final advance")
	}
}

func TestCompletionScenario(t *testing.T) {
	// Bank categories run A, B, A, B for ids 1..4; selecting only category A
	// with no shuffle freezes [1, 3].
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	engine, err := app.NewEngineWithClock(testBank(t), configFor("A"), rand.New(rand.NewSource(1)), clock.Now)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	session := engine.Session()
	if len(session.QuestionIDs) != 2 || session.QuestionIDs[0] != 1 || session.QuestionIDs[1] != 3 {
		t.Fatalf("expected frozen ids [1 3], got %v", session.QuestionIDs)
	}

	// Question 1 correct.
	mustSelect(t, engine, "A")
	if correct, err := engine.Confirm(); err != nil || !correct {
		t.Fatalf("expected correct answer, got correct=%v err=%v", correct, err)
	}
	if result, err := engine.Advance(); err != nil || result != nil {
		t.Fatalf("expected mid-run advance, got result=%v err=%v", result, err)
	}

	// Question 3 incorrect.
	mustSelect(t, engine, "B")
	if correct, err := engine.Confirm(); err != nil || correct {
		t.Fatalf("expected incorrect answer, got correct=%v err=%v", correct, err)
	}

	clock.now = start.Add(2*time.Minute + 5*time.Second)
	result, err := engine.Advance()
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if result == nil {
		t.Fatalf("expected result on final advance")
	}
	if result.TotalQuestions != 2 || result.CorrectCount != 1 {
		t.Fatalf("expected 1/2 correct, got %d/%d", result.CorrectCount, result.TotalQuestions)
	}
	if !result.StartTime.Equal(start) || !result.EndTime.Equal(clock.now) {
		t.Fatalf("unexpected result timestamps: %v .. %v", result.StartTime, result.EndTime)
	}

	stats := app.ComputeStats(result.Answers, result.Config.Categories, testBank(t).Get)
	if len(stats.Categories) != 1 {
		t.Fatalf("expected one category stat, got %+v", stats.Categories)
	}
	a := stats.Categories[0]
	if a.Category != "A" || a.Correct != 1 || a.Total != 2 || a.Rate != 50 {
		t.Fatalf("expected A 1/2 at 50%%, got %+v", a)
	}
}

func TestRunningStatsRounding(t *testing.T) {
	if got := app.Rate(1, 3); got != 33 {
		t.Fatalf("expected round(100/3) == 33, got %d", got)
	}
	if got := app.Rate(2, 3); got != 67 {
		t.Fatalf("expected round(200/3) == 67, got %d", got)
	}
	if got := app.Rate(1, 8); got != 13 {
		t.Fatalf("expected round-half-up 12.5 -> 13, got %d", got)
	}
	if got := app.Rate(0, 0); got != 0 {
		t.Fatalf("expected zero rate with no answers, got %d", got)
	}
}

func TestStatsOmitUnansweredCategories(t *testing.T) {
	engine := newTestEngine(t, configFor("A", "B"))

	mustSelect(t, engine, "A")
	if _, err := engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stats := engine.Stats()
	if stats.TotalAnswered != 1 || stats.CorrectCount != 1 || stats.IncorrectCount != 0 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if len(stats.Categories) != 1 || stats.Categories[0].Category != "A" {
		t.Fatalf("expected only category A so far, got %+v", stats.Categories)
	}
}

func TestEmptyFilterReportsNoQuestions(t *testing.T) {
	_, err := app.NewEngine(testBank(t), configFor("Z"), rand.New(rand.NewSource(1)))
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestResumeRestoresAnsweredState(t *testing.T) {
	bank := bankWithIDs(t, 7, 3, 9)
	session := &domain.QuizSession{
		Config:       configFor("A"),
		QuestionIDs:  []int{7, 3, 9},
		CurrentIndex: 1,
		Answers: []domain.AnswerRecord{
			{QuestionID: 7, SelectedAnswers: []string{"A"}, IsCorrect: true},
			{QuestionID: 3, SelectedAnswers: []string{"B"}, IsCorrect: false},
		},
		StartTime: time.Now(),
	}

	engine, err := app.ResumeEngine(bank, session)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if engine.State() != app.StateAnswered {
		t.Fatalf("expected answered state, got %v", engine.State())
	}
	current, _ := engine.Current()
	if current.ID != 3 {
		t.Fatalf("expected question 3 current, got %d", current.ID)
	}
}

func TestResumeRestoresAwaitingState(t *testing.T) {
	bank := bankWithIDs(t, 7, 3, 9)
	session := &domain.QuizSession{
		Config:       configFor("A"),
		QuestionIDs:  []int{7, 3, 9},
		CurrentIndex: 1,
		Answers: []domain.AnswerRecord{
			{QuestionID: 7, SelectedAnswers: []string{"A"}, IsCorrect: true},
		},
		StartTime: time.Now(),
	}

	engine, err := app.ResumeEngine(bank, session)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if engine.State() != app.StateAwaitingAnswer {
		t.Fatalf("expected awaiting state, got %v", engine.State())
	}
}

func TestResumeDropsMissingIDs(t *testing.T) {
	bank := bankWithIDs(t, 7, 9)
	session := &domain.QuizSession{
		Config:       configFor("A"),
		QuestionIDs:  []int{7, 3, 9},
		CurrentIndex: 0,
		StartTime:    time.Now(),
	}

	engine, err := app.ResumeEngine(bank, session)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if engine.Dropped() != 1 {
		t.Fatalf("expected 1 dropped id, got %d", engine.Dropped())
	}
	if ids := engine.Session().QuestionIDs; len(ids) != 2 || ids[0] != 7 || ids[1] != 9 {
		t.Fatalf("expected ids [7 9], got %v", ids)
	}
}

func TestResumeAllIDsMissing(t *testing.T) {
	bank := bankWithIDs(t, 1)
	session := &domain.QuizSession{
		Config:      configFor("A"),
		QuestionIDs: []int{7, 3},
		StartTime:   time.Now(),
	}

	if _, err := app.ResumeEngine(bank, session); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestResumeRejectsInvalidShape(t *testing.T) {
	bank := bankWithIDs(t, 7, 3)
	session := &domain.QuizSession{
		Config:       configFor("A"),
		QuestionIDs:  []int{7, 3},
		CurrentIndex: 0,
		Answers: []domain.AnswerRecord{
			{QuestionID: 7}, {QuestionID: 3}, {QuestionID: 3},
		},
		StartTime: time.Now(),
	}

	if _, err := app.ResumeEngine(bank, session); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestDisplayChoicesShuffleDoesNotAffectScoring(t *testing.T) {
	config := configFor("A")
	config.ShuffleChoices = true
	engine, err := app.NewEngine(testBank(t), config, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	choices := engine.DisplayChoices(rand.New(rand.NewSource(7)))
	if len(choices) != 4 {
		t.Fatalf("expected all 4 choices, got %d", len(choices))
	}

	mustSelect(t, engine, "A")
	correct, err := engine.Confirm()
	if err != nil || !correct {
		t.Fatalf("display order must not change scoring: correct=%v err=%v", correct, err)
	}
}

// testBank builds four questions: ids 1..4 with categories A, B, A, B.
// Question 4 is multi-answer with correctAnswer "AC"; the rest answer "A".
func testBank(t *testing.T) *domain.Bank {
	t.Helper()
	questions := []domain.Question{
		question(1, "A", "A"),
		question(2, "B", "A"),
		question(3, "A", "A"),
		question(4, "B", "AC"),
	}
	bank, err := domain.NewBank(questions)
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	return bank
}

func bankWithIDs(t *testing.T, ids ...int) *domain.Bank {
	t.Helper()
	var questions []domain.Question
	for _, id := range ids {
		questions = append(questions, question(id, "A", "A"))
	}
	bank, err := domain.NewBank(questions)
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	return bank
}

func question(id int, category, correct string) domain.Question {
	return domain.Question{
		ID:       id,
		Category: category,
		Content:  "question body",
		Choices: []domain.Choice{
			{Label: "A", Text: "first"},
			{Label: "B", Text: "second"},
			{Label: "C", Text: "third"},
			{Label: "D", Text: "fourth"},
		},
		CorrectAnswer: correct,
	}
}

func configFor(categories ...string) domain.QuizConfig {
	return domain.QuizConfig{Categories: categories}
}

func newTestEngine(t *testing.T, config domain.QuizConfig) *app.Engine {
	t.Helper()
	engine, err := app.NewEngine(testBank(t), config, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

// advanceToMultiQuestion answers question 2 so the engine sits on the
// multi-answer question 4 (category B runs [2, 4]).
func advanceToMultiQuestion(t *testing.T, engine *app.Engine) {
	t.Helper()
	mustSelect(t, engine, "A")
	if _, err := engine.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := engine.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	current, ok := engine.Current()
	if !ok || !current.IsMultiple {
		t.Fatalf("expected the multi-answer question, got %+v", current)
	}
}

func mustSelect(t *testing.T, engine *app.Engine, label string) {
	t.Helper()
	if err := engine.Select(label); err != nil {
		t.Fatalf("select %s: %v", label, err)
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}
