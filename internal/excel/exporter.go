package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/langler/pkg/models"
)

// SheetName is the sheet that receives the export.
const SheetName = "Sheet1"

// Header is the first row of an export.
var Header = []interface{}{
	"Word", "Translation", "State", "Stability", "Difficulty",
	"Retrievability", "Interval (days)", "Due", "Last review",
}

const timeLayout = "2006-01-02 15:04"

// ExportItems writes one row per item to w as an .xlsx workbook.
// Retrievability is computed as of now; unset values are left blank.
func ExportItems(w io.Writer, items []models.Item, words map[int64]models.Word, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	for i, it := range items {
		if err := setRow(f, i+2, itemRow(it, words[it.WordID], now)); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 20); err != nil {
		return fmt.Errorf("failed to set column width: %v", err)
	}
	if err := f.SetColWidth(SheetName, "H", "I", 18); err != nil {
		return fmt.Errorf("failed to set column width: %v", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %v", err)
	}
	return nil
}

func itemRow(it models.Item, w models.Word, now time.Time) []interface{} {
	text := w.Text
	if text == "" {
		text = fmt.Sprintf("#%d", it.WordID)
	}
	row := []interface{}{text, w.Translation, it.State.String(), blank(it.Stability), blank(it.Difficulty)}

	if it.Stability != nil {
		_, r := it.RetrievabilityAt(now)
		row = append(row, r)
	} else {
		row = append(row, "")
	}
	row = append(row, it.Interval, formatTime(it.Due), formatTime(it.LastReviewedAt))
	return row
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %v", row, err)
	}
	return nil
}

func blank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
