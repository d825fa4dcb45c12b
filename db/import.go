package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"lessonbook-server-go/models"
	"lessonbook-server-go/validation"
)

// RowError describes a spreadsheet row that was not imported
type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ImportResult summarises a spreadsheet import
type ImportResult struct {
	Imported []models.Student `json:"students"`
	Skipped  []RowError       `json:"skipped"`
}

// ImportStudentsFromExcel reads the first sheet of an xlsx stream and creates
// one student per row. Row 1 is a header; column A is the name and column B
// the rate. Rows failing validation are reported, not imported.
func (r *Repository) ImportStudentsFromExcel(ctx context.Context, file io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.log.Warn("error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	result := &ImportResult{Imported: []models.Student{}, Skipped: []RowError{}}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		body := rowToStudent(row)
		if len(body) == 0 {
			continue // blank row
		}
		check := validation.Student(body)
		if !check.Valid {
			result.Skipped = append(result.Skipped, RowError{Row: i + 1, Errors: check.Errors})
			continue
		}
		name := strings.TrimSpace(body["name"].(string))
		rate, _ := validation.AsNumber(body["rate"])
		student, err := r.CreateStudent(ctx, name, rate)
		if err != nil {
			return result, fmt.Errorf("import row %d: %w", i+1, err)
		}
		result.Imported = append(result.Imported, *student)
	}

	r.log.Info("students imported",
		zap.Int("imported", len(result.Imported)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// rowToStudent maps spreadsheet cells to a payload the validator understands.
// Unparseable rates stay strings so they fail as non-numeric.
func rowToStudent(row []string) map[string]interface{} {
	body := map[string]interface{}{}
	if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
		body["name"] = row[0]
	}
	if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
		raw := strings.TrimSpace(row[1])
		if rate, err := strconv.ParseFloat(raw, 64); err == nil {
			body["rate"] = rate
		} else {
			body["rate"] = raw
		}
	}
	return body
}
