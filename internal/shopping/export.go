package shopping

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Shopping"

// WriteXLSX writes the list as a spreadsheet with one row per entry and a
// "Done" column reflecting the check-off state.
func WriteXLSX(w io.Writer, entries []Entry, checked map[string]bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &[]any{"Item", "Amount", "Unit", "Done"}); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, e := range entries {
		done := ""
		if checked[e.Key.String()] {
			done = "x"
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{e.DisplayName, e.Amount, e.Unit, done}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 32); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
