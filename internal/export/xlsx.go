package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/deelab/costcalc/internal/model"
)

// WriteXLSX writes quotes as a single-sheet XLSX workbook.
func WriteXLSX(w io.Writer, quotes []model.QuoteRequest) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Quote Requests")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range quoteHeader {
		header.AddCell().SetString(name)
	}

	for _, q := range quotes {
		r := toRow(q)
		row := sheet.AddRow()
		for _, value := range []string{
			r.Date, r.Name, r.Email, r.Company, r.SelectedTypes, r.TotalCost, r.Message,
		} {
			row.AddCell().SetString(value)
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}
