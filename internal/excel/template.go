package excel

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/lettersbot/pkg/models"
)

// templateSheet is the sheet excelize.NewFile creates
const templateSheet = "Sheet1"

// WriteTemplate writes an xlsx file laid out for DefaultImportConfig,
// pre-filled with items.
func WriteTemplate(path string, items []models.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(templateSheet, "A1", &Header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for i, it := range items {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address row")
		}
		row := []string{it.ID, it.Letter, it.Sound, it.Example, it.Group}
		if err := f.SetSheetRow(templateSheet, axis, &row); err != nil {
			return errors.Wrapf(err, "failed to write item %q", it.ID)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save template")
	}
	return nil
}
