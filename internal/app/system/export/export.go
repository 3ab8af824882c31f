// Package export writes projected resource views to spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/dalemusser/raciconsole/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the written workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04"

// Workbook builds a single-sheet workbook named after resource: a header
// row followed by one row per record in the given order. Missing values are
// left blank. The caller closes the returned file.
func Workbook(resource string, records []models.Record, columns []string) (*excelize.File, error) {
	if len(columns) == 0 {
		columns = []string{models.FieldName, models.FieldCreatedAt}
	}

	f := excelize.NewFile()
	sheet := sheetName(resource)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = Heading(c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = cell(r, c)
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, resource string, records []models.Record, columns []string) error {
	f, err := Workbook(resource, records, columns)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename returns the download name for an export taken at now.
func Filename(resource string, now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", resource, now.Format("20060102-1504"))
}

// Heading turns a canonical field name into a column heading:
// "createdAt" becomes "Created At", "raci_role" becomes "Raci Role".
func Heading(field string) string {
	var b strings.Builder
	upperNext := true
	prevLower := false
	for _, r := range field {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if b.Len() > 0 {
				b.WriteRune(' ')
			}
			upperNext, prevLower = true, false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}

func cell(r models.Record, field string) any {
	v, ok := r.Get(field)
	if !ok {
		if field == models.FieldFinancialLimit {
			return "No limit"
		}
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(timeLayout)
	case models.FinancialLimit:
		if t.Unlimited() {
			return "No limit"
		}
		return t.Amount.InexactFloat64()
	case string, bool, float64, int, int64:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := display(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return display(v)
}

func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"name", "fullName", "title", "email", "id", "_id"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
		return ""
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// sheetName trims and strips characters Excel does not allow in sheet names.
func sheetName(resource string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, Heading(resource))
	if name == "" {
		name = "Sheet1"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
