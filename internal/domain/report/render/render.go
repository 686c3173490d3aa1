// Package render prints the reports as plain text for terminals.
package render

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	"github.com/FACorreiaa/coverage-reports/internal/domain/report"
	"github.com/FACorreiaa/coverage-reports/pkg/money"
)

const reportTemplate = `{{if .Summary}}Period: {{.Summary.Period}}
Services: {{count .Summary.TotalServiceCount}}
Billed: {{amount .Summary.TotalBilled}}
Covered: {{amount .Summary.TotalCovered}}
Insurers: {{.Summary.InsurerCount}}  Regions: {{.Summary.RegionCount}}
{{else}}Period: {{.NoData}}
{{end}}
=== Coverage by insurer ===
{{range $i, $r := .Companies}}{{inc $i | printf "%2d"}}. {{printf "%-28s" $r.InsurerName}} billed {{amount $r.TotalBilled}}  covered {{amount $r.TotalCovered}}
{{else}}(no records)
{{end}}
=== Services by region ===
{{range $i, $r := .Regions}}{{inc $i | printf "%2d"}}. {{printf "%-28s" $r.Region}} {{count $r.TotalServiceCount}}
{{else}}(no records)
{{end}}`

// Reporter writes the three report views.
type Reporter struct {
	writer   io.Writer
	currency string
	tmpl     *template.Template
}

// NewReporter creates a reporter. A nil writer means stdout.
func NewReporter(writer io.Writer, currency string) (*Reporter, error) {
	if writer == nil {
		writer = os.Stdout
	}

	r := &Reporter{writer: writer, currency: currency}
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"amount": r.amount,
		"count":  func(d decimal.Decimal) string { return d.String() },
		"inc":    func(i int) int { return i + 1 },
	}).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

type view struct {
	Summary   *report.PeriodSummary
	Companies []report.CompanyReportRow
	Regions   []report.RegionReportRow
	NoData    string
}

// Handle builds the reports from records and writes them.
func (r *Reporter) Handle(records []billing.ServiceRecord) error {
	v := view{
		Summary:   report.BuildSummary(records),
		Companies: report.BuildCompanyReport(records),
		Regions:   report.BuildRegionReport(records),
		NoData:    report.NoDataLabel,
	}
	if err := r.tmpl.Execute(r.writer, v); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func (r *Reporter) amount(d decimal.Decimal) string {
	return money.Format(d, r.currency)
}
