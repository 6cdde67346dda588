// Package export writes ranked comparisons to files.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/models"
)

// SheetName is the worksheet WriteXLSX fills.
const SheetName = "Compared"

var header = []interface{}{
	"Item", "Stack", "From", "From stack", "To", "To stack",
	"Difference", "Difference stack", "Times", "%",
}

// WriteXLSX writes records as a spreadsheet with one row per item, in order.
func WriteXLSX(w io.Writer, records []models.ComparisonRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "create header style")
	}
	if err := f.SetCellStyle(SheetName, "A1", "J1", bold); err != nil {
		return errors.Wrap(err, "style header")
	}
	if err := f.SetColWidth(SheetName, "A", "A", 36); err != nil {
		return errors.Wrap(err, "set column width")
	}
	if err := f.SetColWidth(SheetName, "C", "H", 16); err != nil {
		return errors.Wrap(err, "set column width")
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Name,
			r.StackSize,
			r.APrice.String(),
			r.AStackPrice.String(),
			r.BPrice.String(),
			r.BStackPrice.String(),
			r.DiffPrice.String(),
			r.DiffStackPrice.String(),
			compare.FormatMultiplier(r.DiffPercentage),
			compare.FormatPercentage(r.DiffPercentage),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write spreadsheet")
	}
	return nil
}

// WriteXLSXFile writes the spreadsheet to path.
func WriteXLSXFile(path string, records []models.ComparisonRecord) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := WriteXLSX(out, records); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
