package app

import (
	"time"

	"certquiz-service/internal/domain"
)

// Band is the qualitative grade assigned to an overall rate.
type Band int

const (
	// BandNeedsReview covers rates below 50%.
	BandNeedsReview Band = iota
	// BandClose covers 50-69%.
	BandClose
	// BandPassing covers 70-89%.
	BandPassing
	// BandExcellent covers 90-99%.
	BandExcellent
	// BandPerfect is exactly 100%.
	BandPerfect
)

func (b Band) String() string {
	switch b {
	case BandPerfect:
		return "perfect"
	case BandExcellent:
		return "excellent"
	case BandPassing:
		return "passing"
	case BandClose:
		return "close"
	default:
		return "needs review"
	}
}

// BandFor maps an overall rate to its grade using the fixed 100/90/70/50
// breakpoints.
func BandFor(rate int) Band {
	switch {
	case rate == 100:
		return BandPerfect
	case rate >= 90:
		return BandExcellent
	case rate >= 70:
		return BandPassing
	case rate >= 50:
		return BandClose
	default:
		return BandNeedsReview
	}
}

// MissedQuestion is an incorrect answer resolved back to its question.
type MissedQuestion struct {
	Question      domain.Question `json:"question"`
	Selected      []string        `json:"selected"`
	CorrectLabels []string        `json:"correctLabels"`
}

// Report is the displayable summary of a completed run.
type Report struct {
	Rate           int              `json:"rate"`
	Band           string           `json:"band"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	Minutes        int              `json:"minutes"`
	Seconds        int              `json:"seconds"`
	Categories     []CategoryStat   `json:"categories"`
	Missed         []MissedQuestion `json:"missed"`
}

// BuildReport derives the final report from a result and the bank. Pure; the
// result's recorded correctness is taken as-is, never rescored.
func BuildReport(result *domain.QuizResult, bank *domain.Bank) Report {
	rate := Rate(result.CorrectCount, result.TotalQuestions)

	elapsed := int(result.EndTime.Sub(result.StartTime).Round(time.Second).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	stats := ComputeStats(result.Answers, result.Config.Categories, bank.Get)

	var missed []MissedQuestion
	for _, record := range result.Answers {
		if record.IsCorrect {
			continue
		}
		question, ok := bank.Get(record.QuestionID)
		if !ok {
			continue
		}
		missed = append(missed, MissedQuestion{
			Question:      question,
			Selected:      record.SelectedAnswers,
			CorrectLabels: question.CorrectLabels(),
		})
	}

	return Report{
		Rate:           rate,
		Band:           BandFor(rate).String(),
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.TotalQuestions,
		Minutes:        elapsed / 60,
		Seconds:        elapsed % 60,
		Categories:     stats.Categories,
		Missed:         missed,
	}
}
