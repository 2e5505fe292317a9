// Package export renders quote requests to CSV and XLSX for the admin
// download endpoints and the quotes CLI.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/deelab/costcalc/internal/model"
)

var quoteHeader = []string{"Date", "Name", "Email", "Company", "Selected Types", "Total Cost", "Message"}

type quoteRow struct {
	Date          string `csv:"Date"`
	Name          string `csv:"Name"`
	Email         string `csv:"Email"`
	Company       string `csv:"Company"`
	SelectedTypes string `csv:"Selected Types"`
	TotalCost     string `csv:"Total Cost"`
	Message       string `csv:"Message"`
}

var quantityPrinter = message.NewPrinter(language.English)

// renderSelectedTypes flattens the breakdown snapshot to the
// "Name (qty); Name (qty)" form the export sheets have always used.
func renderSelectedTypes(types []model.SelectedTypeSnapshot) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s (%s)",
			t.Name, quantityPrinter.Sprint(number.Decimal(t.Quantity))))
	}
	return strings.Join(parts, "; ")
}

func toRow(q model.QuoteRequest) quoteRow {
	return quoteRow{
		Date:          q.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		Name:          q.Name,
		Email:         q.Email,
		Company:       q.Company,
		SelectedTypes: renderSelectedTypes(q.SelectedTypes),
		TotalCost:     fmt.Sprintf("$%.2f", q.TotalCost),
		Message:       q.Message,
	}
}

// WriteCSV writes quotes as CSV, header row included.
func WriteCSV(w io.Writer, quotes []model.QuoteRequest) error {
	rows := make([]quoteRow, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, toRow(q))
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: marshal csv")
	}
	_, err = w.Write(data)
	return eris.Wrap(err, "export: write csv")
}

// Filename returns the dated export filename for the given extension.
func Filename(ext string) string {
	return fmt.Sprintf("quote_requests_%s.%s", time.Now().UTC().Format("2006-01-02"), ext)
}
