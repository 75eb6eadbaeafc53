package questions

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"ragbench/internal/domain"
)

// LoadCSV reads benchmark questions from a CSV file with a header row.
// Required columns: "problem" and "answer"; an optional "metadata"
// column becomes the question topic. A limit <= 0 loads every row.
func LoadCSV(path string, limit int) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questions file: %w", err)
	}
	defer f.Close()

	return parse(f, limit)
}

func parse(r io.Reader, limit int) ([]domain.Question, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	problemCol, ok := cols["problem"]
	if !ok {
		return nil, fmt.Errorf("questions file missing required column: problem")
	}
	answerCol, ok := cols["answer"]
	if !ok {
		return nil, fmt.Errorf("questions file missing required column: answer")
	}
	metadataCol, hasMetadata := cols["metadata"]

	var questions []domain.Question
	for i := 0; ; i++ {
		if limit > 0 && i >= limit {
			break
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read question row %d: %w", i, err)
		}

		q := domain.Question{
			Index:    i,
			Text:     row[problemCol],
			Expected: row[answerCol],
		}
		if hasMetadata && metadataCol < len(row) {
			q.Topic = row[metadataCol]
		}
		questions = append(questions, q)
	}

	return questions, nil
}
