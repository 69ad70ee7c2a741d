package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"certquiz-service/internal/domain"
)

// BankLoader reads the question bank from a JSON file, the output of the
// convert command.
type BankLoader struct {
	path string
}

func NewBankLoader(path string) *BankLoader {
	return &BankLoader{path: path}
}

func (l *BankLoader) LoadBank(_ context.Context) (*domain.Bank, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal bank file: %w", err)
	}
	bank, err := domain.NewBank(questions)
	if err != nil {
		return nil, fmt.Errorf("validate bank file: %w", err)
	}
	return bank, nil
}
