// Package export renders extraction results as JSON or XLSX workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

const (
	FieldsSheet = "Fields"
	QASheet     = "QA"

	// excel rejects longer cell strings
	maxCellRunes = 32767
)

// FormatConfidence renders a [0, 1] score as a percentage with one decimal,
// e.g. 0.875 -> "87.5%".
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// JSON writes result as indented JSON.
func JSON(w io.Writer, result *entity.ExtractionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// XLSX returns a workbook with one row per field and a QA sheet.
func XLSX(result *entity.ExtractionResult, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default "Sheet1" becomes the fields sheet
	if err := f.SetSheetName(f.GetSheetName(0), FieldsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(QASheet); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	if err := writeFields(f, result); err != nil {
		return nil, err
	}
	if err := writeQA(f, result); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"doc_type", result.DocType,
		"rows", len(result.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeFields(f *excelize.File, result *entity.ExtractionResult) error {
	headers := []any{"Field", "Value", "Confidence", "Page", "BBox"}
	if err := f.SetSheetRow(FieldsSheet, "A1", &headers); err != nil {
		return err
	}

	row := 2
	for _, fld := range result.Fields {
		values := []any{
			fld.Name,
			truncate(fld.Value, maxCellRunes),
			FormatConfidence(fld.Confidence),
			fld.Source.Page,
			formatBBox(fld.Source.BBox),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(FieldsSheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	// summary below the table
	row++
	summary := [][]any{
		{"Document type", result.DocType},
		{"Overall confidence", FormatConfidence(result.OverallConfidence)},
	}
	for _, s := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(FieldsSheet, cell, &s); err != nil {
			return err
		}
		row++
	}

	_ = f.SetColWidth(FieldsSheet, "A", "A", 22) // field
	_ = f.SetColWidth(FieldsSheet, "B", "B", 48) // value
	_ = f.SetColWidth(FieldsSheet, "C", "D", 12)
	_ = f.SetColWidth(FieldsSheet, "E", "E", 28) // bbox
	return nil
}

func writeQA(f *excelize.File, result *entity.ExtractionResult) error {
	headers := []any{"Rule", "Outcome"}
	if err := f.SetSheetRow(QASheet, "A1", &headers); err != nil {
		return err
	}

	row := 2
	write := func(rule, outcome string) error {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		row++
		values := []any{rule, outcome}
		return f.SetSheetRow(QASheet, cell, &values)
	}
	for _, r := range result.QA.PassedRules {
		if err := write(r, "passed"); err != nil {
			return err
		}
	}
	for _, r := range result.QA.FailedRules {
		if err := write(r, "failed"); err != nil {
			return err
		}
	}
	if result.QA.Notes != "" {
		row++
		if err := write("Notes", result.QA.Notes); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(QASheet, "A", "A", 40)
	_ = f.SetColWidth(QASheet, "B", "B", 60)
	return nil
}

func formatBBox(b entity.BBox) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
