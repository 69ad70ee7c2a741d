// Package bankbuild turns the tabular question sources into the immutable
// JSON question bank consumed by the service. It is an offline, one-time
// transform; the service itself never reads CSV.
package bankbuild

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"certquiz-service/internal/domain"
)

// Source column headers. The bundled content is Japanese; these names are
// data, fixed by the upstream spreadsheets.
const (
	colNumber   = "設問"
	colCategory = "カテゴリ"
	colContent  = "出題内容"
	colAnswer   = "正答"
	colExam     = "対応試験"
)

var choiceLabels = []string{"A", "B", "C", "D"}

// recordStart marks a fresh CSV record: the question-set column is numeric.
var recordStart = regexp.MustCompile(`^\d+,`)

// ConvertDir processes every .csv file in dir in sorted filename order and
// numbers the questions sequentially across all files, so ids are stable as
// long as the file set is.
func ConvertDir(dir string) ([]domain.Question, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var all []domain.Question
	nextID := 1
	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for _, q := range ConvertCSV(string(content)) {
			q.ID = nextID
			nextID++
			q.SourceFile = name
			all = append(all, q)
		}
	}
	return all, nil
}

// ConvertCSV parses one source file. Rows without a question number or body
// are skipped; choices with empty text are dropped. Returned questions carry
// no ids; ConvertDir assigns them.
func ConvertCSV(content string) []domain.Question {
	lines := mergeContinuationLines(strings.Split(content, "\n"))
	if len(lines) == 0 {
		return nil
	}

	headers := parseLine(lines[0])
	var questions []domain.Question
	for _, line := range lines[1:] {
		values := parseLine(line)
		if len(values) < len(headers) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			row[header] = values[i]
		}
		if row[colNumber] == "" || row[colContent] == "" {
			continue
		}

		answer := row[colAnswer]
		q := domain.Question{
			Category:      row[colCategory],
			Content:       row[colContent],
			CorrectAnswer: answer,
			IsMultiple:    len([]rune(answer)) > 1,
			Exam:          row[colExam],
		}
		for _, label := range choiceLabels {
			text := row["選択肢"+label]
			if text == "" {
				continue
			}
			q.Choices = append(q.Choices, domain.Choice{
				Label:         label,
				Text:          text,
				HelpURL:       row["選択肢"+label+" ヘルプ参照先URL"],
				TextReference: row["選択肢"+label+" テキスト参照先"],
			})
		}
		questions = append(questions, q)
	}
	return questions
}

// mergeContinuationLines joins cells that span raw lines. The sources do not
// quote embedded newlines; a new record is recognized by its numeric first
// column, everything else is a continuation of the previous record.
func mergeContinuationLines(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	merged := []string{raw[0]}
	current := ""
	for _, line := range raw[1:] {
		if recordStart.MatchString(strings.TrimSpace(line)) {
			if current != "" {
				merged = append(merged, current)
			}
			current = line
		} else if current != "" || line != "" {
			current += "\n" + line
		}
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

// parseLine splits one CSV record, honoring double-quoted fields with ""
// escapes. Fields are trimmed at the edges; newlines inside a merged field
// survive.
func parseLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch ch := runes[i]; {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// WriteBank writes the question slice as pretty-printed JSON, creating the
// parent directory when needed.
func WriteBank(path string, questions []domain.Question) error {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bank dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bank: %w", err)
	}
	return nil
}
