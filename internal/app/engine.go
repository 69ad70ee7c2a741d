package app

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"certquiz-service/internal/domain"
)

// State identifies where the engine is in the answer cycle.
type State int

const (
	// StateAwaitingAnswer means the current question has not been confirmed.
	StateAwaitingAnswer State = iota
	// StateAnswered means the current question is scored but not advanced.
	StateAnswered
	// StateCompleted means every question has been answered and advanced.
	StateCompleted
)

// Engine owns one session's mutable state: the frozen question sequence, the
// answer pointer, the in-flight selection and the recorded answers. All
// methods are invoked from a single goroutine; persistence is the caller's
// concern.
type Engine struct {
	questions []domain.Question
	session   *domain.QuizSession
	selection []string
	answered  bool
	completed bool
	dropped   int
	now       func() time.Time
}

// NewEngine starts a fresh run: selects the question sequence once and
// freezes it. Returns domain.ErrNoQuestions when the filter matches nothing.
func NewEngine(bank *domain.Bank, config domain.QuizConfig, rnd *rand.Rand) (*Engine, error) {
	return NewEngineWithClock(bank, config, rnd, time.Now)
}

// NewEngineWithClock is test-only for deterministic timestamps.
func NewEngineWithClock(bank *domain.Bank, config domain.QuizConfig, rnd *rand.Rand, now func() time.Time) (*Engine, error) {
	if len(config.Categories) == 0 {
		return nil, domain.ErrInvalidConfig
	}
	questions := SelectQuestions(bank, config, rnd)
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	start := now()
	return &Engine{
		questions: questions,
		session: &domain.QuizSession{
			Config:      config,
			QuestionIDs: ids,
			StartTime:   start,
			LastUpdated: start,
		},
		now: now,
	}, nil
}

// ResumeEngine rebuilds an engine from a persisted session. Question ids no
// longer present in the bank are dropped from the sequence; if that empties
// it, or the remaining shape violates the session invariants, the session is
// not resumable.
func ResumeEngine(bank *domain.Bank, session *domain.QuizSession) (*Engine, error) {
	return ResumeEngineWithClock(bank, session, time.Now)
}

// ResumeEngineWithClock is test-only for deterministic timestamps.
func ResumeEngineWithClock(bank *domain.Bank, session *domain.QuizSession, now func() time.Time) (*Engine, error) {
	if !session.Valid() {
		return nil, domain.ErrNoSession
	}

	questions := make([]domain.Question, 0, len(session.QuestionIDs))
	ids := make([]int, 0, len(session.QuestionIDs))
	dropped := 0
	for _, id := range session.QuestionIDs {
		q, ok := bank.Get(id)
		if !ok {
			dropped++
			continue
		}
		questions = append(questions, q)
		ids = append(ids, id)
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	restored := *session
	restored.QuestionIDs = ids
	restored.Answers = append([]domain.AnswerRecord(nil), session.Answers...)
	if !restored.Valid() {
		// Dropping ids moved the pointer out of range; nothing sane to resume.
		return nil, domain.ErrNoSession
	}

	return &Engine{
		questions: questions,
		session:   &restored,
		answered:  len(restored.Answers) == restored.CurrentIndex+1,
		dropped:   dropped,
		now:       now,
	}, nil
}

// State returns the engine's current state.
func (e *Engine) State() State {
	switch {
	case e.completed:
		return StateCompleted
	case e.answered:
		return StateAnswered
	default:
		return StateAwaitingAnswer
	}
}

// Current returns the question at the answer pointer.
func (e *Engine) Current() (domain.Question, bool) {
	if e.completed {
		return domain.Question{}, false
	}
	return e.questions[e.session.CurrentIndex], true
}

// Progress returns the 0-based pointer and the total question count.
func (e *Engine) Progress() (index, total int) {
	return e.session.CurrentIndex, len(e.questions)
}

// Dropped reports how many persisted question ids were missing from the bank
// when this engine was resumed.
func (e *Engine) Dropped() int {
	return e.dropped
}

// Selection returns the labels currently toggled on, in click order.
func (e *Engine) Selection() []string {
	return append([]string(nil), e.selection...)
}

// Select toggles a choice label. Single-answer questions hold exactly one
// label at a time, so a new label replaces the prior one; multi-answer
// questions toggle each label independently.
func (e *Engine) Select(label string) error {
	if e.completed {
		return domain.ErrQuizCompleted
	}
	if e.answered {
		return domain.ErrAlreadyAnswered
	}
	question := e.questions[e.session.CurrentIndex]
	if !hasChoice(question, label) {
		return domain.ErrUnknownChoice
	}

	if !question.IsMultiple {
		if len(e.selection) == 1 && e.selection[0] == label {
			e.selection = e.selection[:0]
		} else {
			e.selection = []string{label}
		}
		return nil
	}

	for i, held := range e.selection {
		if held == label {
			e.selection = append(e.selection[:i], e.selection[i+1:]...)
			return nil
		}
	}
	e.selection = append(e.selection, label)
	return nil
}

// Confirm scores the current selection and appends the answer record. The
// record is immutable from here on; correctness is never recomputed.
func (e *Engine) Confirm() (bool, error) {
	if e.completed {
		return false, domain.ErrQuizCompleted
	}
	if e.answered {
		return false, domain.ErrAlreadyAnswered
	}
	if len(e.selection) == 0 {
		return false, domain.ErrEmptySelection
	}

	question := e.questions[e.session.CurrentIndex]
	correct := isCorrectAnswer(e.selection, question.CorrectAnswer)
	e.session.Answers = append(e.session.Answers, domain.AnswerRecord{
		QuestionID:      question.ID,
		SelectedAnswers: append([]string(nil), e.selection...),
		IsCorrect:       correct,
	})
	e.answered = true
	return correct, nil
}

// Advance moves past an answered question. On the last question it completes
// the run and returns the result; otherwise it returns nil and the engine is
// awaiting the next answer.
func (e *Engine) Advance() (*domain.QuizResult, error) {
	if e.completed {
		return nil, domain.ErrQuizCompleted
	}
	if !e.answered {
		return nil, domain.ErrNotAnswered
	}

	e.selection = e.selection[:0]
	if e.session.CurrentIndex+1 < len(e.questions) {
		e.session.CurrentIndex++
		e.answered = false
		return nil, nil
	}

	e.completed = true
	correct := 0
	for _, record := range e.session.Answers {
		if record.IsCorrect {
			correct++
		}
	}
	return &domain.QuizResult{
		Answers:        append([]domain.AnswerRecord(nil), e.session.Answers...),
		TotalQuestions: len(e.questions),
		CorrectCount:   correct,
		StartTime:      e.session.StartTime,
		EndTime:        e.now(),
		Config:         e.session.Config,
	}, nil
}

// Stats derives the running statistics from the recorded answers.
func (e *Engine) Stats() SessionStats {
	return ComputeStats(e.session.Answers, e.session.Config.Categories, e.lookup)
}

// Session returns a snapshot safe to hand to the persistence layer.
func (e *Engine) Session() *domain.QuizSession {
	snapshot := *e.session
	snapshot.QuestionIDs = append([]int(nil), e.session.QuestionIDs...)
	snapshot.Answers = append([]domain.AnswerRecord(nil), e.session.Answers...)
	return &snapshot
}

// DisplayChoices returns the current question's choices in display order:
// shuffled when the config asks for it, bank order otherwise. Scoring is
// unaffected either way.
func (e *Engine) DisplayChoices(rnd *rand.Rand) []domain.Choice {
	question, ok := e.Current()
	if !ok {
		return nil
	}
	choices := append([]domain.Choice(nil), question.Choices...)
	if e.session.Config.ShuffleChoices {
		shuffle(choices, rnd)
	}
	return choices
}

func (e *Engine) lookup(id int) (domain.Question, bool) {
	for _, q := range e.questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// isCorrectAnswer compares the selection and the correct answer as label
// sets: both are sorted into canonical order, so click order is irrelevant.
func isCorrectAnswer(selection []string, correctAnswer string) bool {
	selected := append([]string(nil), selection...)
	sort.Strings(selected)

	correct := strings.Split(correctAnswer, "")
	sort.Strings(correct)

	return strings.Join(selected, "") == strings.Join(correct, "")
}

func hasChoice(q domain.Question, label string) bool {
	for _, choice := range q.Choices {
		if choice.Label == label {
			return true
		}
	}
	return false
}
