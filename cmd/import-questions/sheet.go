package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

const sheetName = "Questions"

var sheetHeaders = []interface{}{"category", "topic", "question", "choice_a", "choice_b", "choice_c", "choice_d", "answer"}

// readSheet parses the first sheet of an .xlsx question bank. The first row is
// a header. The answer column holds either the choice text or its letter (A-D).
func readSheet(r io.Reader) ([]entity.BankQuestion, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no questions", sheets[0])
	}

	questions := make([]entity.BankQuestion, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}
		q, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func parseRow(row []string) (entity.BankQuestion, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	q := entity.BankQuestion{
		Category: strings.ToLower(cell(0)),
		Topic:    cell(1),
		Text:     cell(2),
	}
	for i := 3; i <= 6; i++ {
		if c := cell(i); c != "" {
			q.Choices = append(q.Choices, c)
		}
	}

	answer := cell(7)
	if answer == "" {
		return q, fmt.Errorf("answer is empty")
	}
	// a single letter refers to a choice column
	if len(answer) == 1 {
		letter := strings.ToUpper(answer)[0]
		if letter >= 'A' && letter <= 'D' {
			idx := 3 + int(letter-'A')
			if choice := cell(idx); choice != "" {
				answer = choice
			}
		}
	}
	q.Answer = answer
	return q, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// writeTemplate writes an empty workbook with the expected header row and one example.
func writeTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	if err := sw.SetRow("A1", sheetHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	example := []interface{}{"math", "algebra", "If 2x + 3 = 11, what is x?", "3", "4", "5", "7", "B"}
	if err := sw.SetRow("A2", example); err != nil {
		return fmt.Errorf("write example row: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}
