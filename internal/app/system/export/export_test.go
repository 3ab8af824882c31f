package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/export"
	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func limit(s string) models.FinancialLimit {
	d := decimal.RequireFromString(s)
	return models.FinancialLimit{Amount: &d}
}

func TestWrite_HeaderAndRows(t *testing.T) {
	created := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	records := []models.Record{
		{ID: "1", Name: "Finance", CreatedAt: created, Fields: map[string]any{
			models.FieldFinancialLimit: limit("0"),
			"guests":                   []any{"ops@acme.test", map[string]any{"name": "Asha"}},
		}},
		{ID: "2", Name: "Legal", Fields: map[string]any{
			models.FieldFinancialLimit: models.NoFinancialLimit,
		}},
	}
	columns := []string{models.FieldName, models.FieldCreatedAt, models.FieldFinancialLimit, "guests"}

	var buf bytes.Buffer
	if err := export.Write(&buf, models.ResourceDepartments, records, columns); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet != "Departments" {
		t.Errorf("sheet name: got %q", sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	wantHeader := []string{"Name", "Created At", "Financial Limit", "Guests"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header %d: got %q, want %q", i, rows[0][i], h)
		}
	}

	first := rows[1]
	if first[0] != "Finance" || first[1] != "2024-01-02 09:30" {
		t.Errorf("unexpected first row %v", first)
	}
	if first[2] != "0" {
		t.Errorf("zero limit must stay zero, got %q", first[2])
	}
	if first[3] != "ops@acme.test, Asha" {
		t.Errorf("guests: got %q", first[3])
	}

	second := rows[2]
	if second[0] != "Legal" || second[1] != "" {
		t.Errorf("unexpected second row %v", second)
	}
	if second[2] != "No limit" {
		t.Errorf("missing limit must read as no limit, got %q", second[2])
	}
}

func TestWorkbook_DefaultColumns(t *testing.T) {
	f, err := export.Workbook("raci-assignments", nil, nil)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Raci Assignments")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 2 || rows[0][0] != "Name" {
		t.Errorf("expected default header only, got %v", rows)
	}
}

func TestHeading(t *testing.T) {
	tests := map[string]string{
		"name":           "Name",
		"createdAt":      "Created At",
		"financialLimit": "Financial Limit",
		"raci_role":      "Raci Role",
		"eventId":        "Event Id",
	}
	for in, want := range tests {
		if got := export.Heading(in); got != want {
			t.Errorf("Heading(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilename(t *testing.T) {
	got := export.Filename("departments", time.Date(2024, 5, 1, 14, 5, 0, 0, time.UTC))
	if got != "departments-20240501-1405.xlsx" {
		t.Errorf("unexpected filename %q", got)
	}
}
