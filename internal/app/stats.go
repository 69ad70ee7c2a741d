package app

import (
	"math"

	"certquiz-service/internal/domain"
)

// CategoryStat is the per-category slice of a rate breakdown.
type CategoryStat struct {
	Category string `json:"category"`
	Correct  int    `json:"correct"`
	Total    int    `json:"total"`
	Rate     int    `json:"rate"`
}

// SessionStats summarizes the answers recorded so far.
type SessionStats struct {
	CorrectCount   int            `json:"correctCount"`
	IncorrectCount int            `json:"incorrectCount"`
	TotalAnswered  int            `json:"totalAnswered"`
	Rate           int            `json:"rate"`
	Categories     []CategoryStat `json:"categories"`
}

// ComputeStats is a pure function of the recorded answers. Categories with no
// answers yet are omitted; rates round half-up to whole percent.
func ComputeStats(answers []domain.AnswerRecord, categories []string, lookup func(id int) (domain.Question, bool)) SessionStats {
	stats := SessionStats{TotalAnswered: len(answers)}
	for _, record := range answers {
		if record.IsCorrect {
			stats.CorrectCount++
		} else {
			stats.IncorrectCount++
		}
	}
	stats.Rate = Rate(stats.CorrectCount, stats.TotalAnswered)

	for _, category := range categories {
		correct, total := 0, 0
		for _, record := range answers {
			q, ok := lookup(record.QuestionID)
			if !ok || q.Category != category {
				continue
			}
			total++
			if record.IsCorrect {
				correct++
			}
		}
		if total == 0 {
			continue
		}
		stats.Categories = append(stats.Categories, CategoryStat{
			Category: category,
			Correct:  correct,
			Total:    total,
			Rate:     Rate(correct, total),
		})
	}
	return stats
}

// Rate returns correct/total as a whole percentage, rounded half-up, or zero
// when nothing has been answered.
func Rate(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
