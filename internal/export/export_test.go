package export

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

func sampleResult() *entity.ExtractionResult {
	qa := entity.NewQAReport()
	qa.Pass("date_format_invoice_date")
	qa.Fail("amount_format_total_amount")
	qa.Notes = "1 low-confidence fields: vendor_name"
	return &entity.ExtractionResult{
		DocType: "invoice",
		Fields: []entity.ExtractedField{
			{Name: "invoice_date", Value: "2024-01-15", Confidence: 0.984, Source: entity.Source{Page: 2, BBox: entity.BBox{100, 200, 180.5, 215}}},
			{Name: "total_amount", Value: "ten", Confidence: 0.5, Source: entity.DefaultSource()},
			{Name: "vendor_name", Value: "", Confidence: 0.2 * 0.4, Source: entity.DefaultSource()},
		},
		OverallConfidence: 0.875,
		QA:                qa,
	}
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "87.5%", FormatConfidence(0.875))
	assert.Equal(t, "100.0%", FormatConfidence(1))
	assert.Equal(t, "0.0%", FormatConfidence(0))
	assert.Equal(t, "33.3%", FormatConfidence(1.0/3))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResult()))

	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"doc_type\": \"invoice\""))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"doc_type", "fields", "overall_confidence", "qa"}, slices.Sorted(maps.Keys(decoded)))

	fields := decoded["fields"].([]any)
	first := fields[0].(map[string]any)
	assert.Equal(t, "invoice_date", first["name"])
	assert.Equal(t, map[string]any{"page": 2.0, "bbox": []any{100.0, 200.0, 180.5, 215.0}}, first["source"])

	qa := decoded["qa"].(map[string]any)
	assert.Equal(t, []any{"date_format_invoice_date"}, qa["passed_rules"])
	assert.Equal(t, []any{"amount_format_total_amount"}, qa["failed_rules"])
}

func TestJSON_EmptyRuleListsAreArrays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, &entity.ExtractionResult{DocType: "invoice", Fields: []entity.ExtractedField{}, QA: entity.NewQAReport()}))
	assert.Contains(t, buf.String(), `"passed_rules": []`)
	assert.Contains(t, buf.String(), `"failed_rules": []`)
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleResult(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{FieldsSheet, QASheet}, f.GetSheetList())

	rows, err := f.GetRows(FieldsSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 7)
	assert.Equal(t, []string{"Field", "Value", "Confidence", "Page", "BBox"}, rows[0])
	assert.Equal(t, []string{"invoice_date", "2024-01-15", "98.4%", "2", "100,200,180.5,215"}, rows[1])
	assert.Equal(t, "vendor_name", rows[3][0])
	assert.Equal(t, []string{"Document type", "invoice"}, rows[5])
	assert.Equal(t, []string{"Overall confidence", "87.5%"}, rows[6])

	qaRows, err := f.GetRows(QASheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rule", "Outcome"}, qaRows[0])
	assert.Equal(t, []string{"date_format_invoice_date", "passed"}, qaRows[1])
	assert.Equal(t, []string{"amount_format_total_amount", "failed"}, qaRows[2])
	assert.Equal(t, []string{"Notes", "1 low-confidence fields: vendor_name"}, qaRows[len(qaRows)-1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "hé…", truncate("héllo", 3))
}
