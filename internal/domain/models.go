package domain

import (
	"fmt"
	"time"
)

// Choice is one selectable answer for a question. HelpURL and TextReference
// are optional citations carried through from the source material.
type Choice struct {
	Label         string `json:"label"`
	Text          string `json:"text"`
	HelpURL       string `json:"helpUrl,omitempty"`
	TextReference string `json:"textReference,omitempty"`
}

// Question is an immutable bank entry. CorrectAnswer holds the labels of the
// correct choices as a string of characters (e.g. "AC"); IsMultiple must be
// consistent with its length.
type Question struct {
	ID            int      `json:"id"`
	Category      string   `json:"category"`
	Content       string   `json:"content"`
	Choices       []Choice `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
	IsMultiple    bool     `json:"isMultiple"`
	Exam          string   `json:"exam,omitempty"`
	SourceFile    string   `json:"sourceFile,omitempty"`
}

// CorrectLabels returns the correct choice labels as individual strings.
func (q Question) CorrectLabels() []string {
	labels := make([]string, 0, len(q.CorrectAnswer))
	for _, r := range q.CorrectAnswer {
		labels = append(labels, string(r))
	}
	return labels
}

// QuizConfig is the immutable input to a session. QuestionCount of zero means
// all matching questions.
type QuizConfig struct {
	Categories       []string `json:"categories"`
	QuestionCount    int      `json:"questionCount"`
	ShuffleQuestions bool     `json:"shuffleQuestions"`
	ShuffleChoices   bool     `json:"shuffleChoices"`
}

// HasCategory reports whether the config selects the given category.
func (c QuizConfig) HasCategory(category string) bool {
	for _, selected := range c.Categories {
		if selected == category {
			return true
		}
	}
	return false
}

// AnswerRecord captures one confirmed answer. SelectedAnswers preserves the
// user's click order; IsCorrect is computed once at confirm time and never
// recomputed.
type AnswerRecord struct {
	QuestionID      int      `json:"questionId"`
	SelectedAnswers []string `json:"selectedAnswers"`
	IsCorrect       bool     `json:"isCorrect"`
}

// QuizSession is the resumable persisted state. QuestionIDs is frozen at
// session start; resuming never re-filters or re-shuffles.
type QuizSession struct {
	Config       QuizConfig     `json:"config"`
	QuestionIDs  []int          `json:"questionIds"`
	CurrentIndex int            `json:"currentIndex"`
	Answers      []AnswerRecord `json:"answers"`
	StartTime    time.Time      `json:"startTime"`
	LastUpdated  time.Time      `json:"lastUpdated"`
}

// Valid reports whether the session satisfies its structural invariants: a
// non-empty frozen sequence, the pointer in range, and the answer count
// matching either the awaiting or the answered shape for the pointer.
func (s *QuizSession) Valid() bool {
	if s == nil || len(s.QuestionIDs) == 0 {
		return false
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return false
	}
	if len(s.Config.Categories) == 0 {
		return false
	}
	n := len(s.Answers)
	return n == s.CurrentIndex || n == s.CurrentIndex+1
}

// QuizResult is the terminal outcome of a completed run. It is never
// persisted.
type QuizResult struct {
	Answers        []AnswerRecord `json:"answers"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectCount   int            `json:"correctCount"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        time.Time      `json:"endTime"`
	Config         QuizConfig     `json:"config"`
}

// HistoryEntry is one line of the capped study log.
type HistoryEntry struct {
	Date           string   `json:"date"`
	CorrectRate    int      `json:"correctRate"`
	TotalQuestions int      `json:"totalQuestions"`
	Categories     []string `json:"categories"`
}

// Bank is the validated, immutable question collection for the process.
type Bank struct {
	questions  []Question
	byID       map[int]Question
	categories []string
}

// NewBank validates and indexes a question slice. Choices with empty text are
// dropped; IsMultiple is recomputed from CorrectAnswer.
func NewBank(questions []Question) (*Bank, error) {
	bank := &Bank{
		questions: make([]Question, 0, len(questions)),
		byID:      make(map[int]Question, len(questions)),
	}
	seenCategory := make(map[string]bool)
	for _, q := range questions {
		if err := normalizeQuestion(&q); err != nil {
			return nil, err
		}
		if _, dup := bank.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id", q.ID)
		}
		bank.byID[q.ID] = q
		bank.questions = append(bank.questions, q)
		if !seenCategory[q.Category] {
			seenCategory[q.Category] = true
			bank.categories = append(bank.categories, q.Category)
		}
	}
	return bank, nil
}

func normalizeQuestion(q *Question) error {
	if q.ID <= 0 {
		return fmt.Errorf("question %d: id must be positive", q.ID)
	}
	if q.Category == "" {
		return fmt.Errorf("question %d: empty category", q.ID)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("question %d: empty correct answer", q.ID)
	}
	kept := make([]Choice, 0, len(q.Choices))
	seenLabel := make(map[string]bool, len(q.Choices))
	for _, choice := range q.Choices {
		if choice.Text == "" {
			continue
		}
		if len([]rune(choice.Label)) != 1 {
			return fmt.Errorf("question %d: choice label %q is not a single letter", q.ID, choice.Label)
		}
		if seenLabel[choice.Label] {
			return fmt.Errorf("question %d: duplicate choice label %q", q.ID, choice.Label)
		}
		seenLabel[choice.Label] = true
		kept = append(kept, choice)
	}
	if len(kept) > 4 {
		return fmt.Errorf("question %d: %d choices, at most 4 allowed", q.ID, len(kept))
	}
	q.Choices = kept
	q.IsMultiple = len([]rune(q.CorrectAnswer)) > 1
	return nil
}

// Questions returns the bank entries in bank order.
func (b *Bank) Questions() []Question {
	return b.questions
}

// Get looks a question up by id.
func (b *Bank) Get(id int) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Categories returns the category labels in first-seen bank order.
func (b *Bank) Categories() []string {
	return b.categories
}

// CountByCategory returns how many questions each category holds.
func (b *Bank) CountByCategory() map[string]int {
	counts := make(map[string]int, len(b.categories))
	for _, q := range b.questions {
		counts[q.Category]++
	}
	return counts
}
