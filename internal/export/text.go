package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/gwp/internal/report"
)

// WriteText writes one line per month:
//
//	Report for 2020-01: [contracts=1, AGWP=100, EGWP=300]
func WriteText(w io.Writer, rows []report.Row) error {
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes an aligned table with digit grouping for lang.
func WriteTable(w io.Writer, rows []report.Row, lang language.Tag) error {
	p := message.NewPrinter(lang)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "MONTH\tCONTRACTS\tAGWP\tEGWP\t")
	for _, row := range rows {
		p.Fprintf(tw, "%s\t%d\t%d\t%d\t\n",
			row.Month, row.ActiveContracts, row.ActualPremium, row.ExpectedPremium)
	}
	return tw.Flush()
}
