package app

import (
	"math/rand"

	"certquiz-service/internal/domain"
)

// SelectQuestions derives the frozen question sequence for a fresh run:
// filter by category, shuffle with the supplied source when requested, then
// truncate to the configured count (zero keeps everything). The caller owns
// the rand so shuffling stays deterministic under test.
func SelectQuestions(bank *domain.Bank, config domain.QuizConfig, rnd *rand.Rand) []domain.Question {
	var filtered []domain.Question
	for _, q := range bank.Questions() {
		if config.HasCategory(q.Category) {
			filtered = append(filtered, q)
		}
	}

	if config.ShuffleQuestions {
		shuffle(filtered, rnd)
	}

	if config.QuestionCount > 0 && config.QuestionCount < len(filtered) {
		filtered = filtered[:config.QuestionCount]
	}
	return filtered
}

// shuffle applies a Fisher-Yates permutation in place.
func shuffle[T any](items []T, rnd *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
