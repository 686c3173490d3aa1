// Package export writes the company and region rankings as CSV or XLSX.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	"github.com/FACorreiaa/coverage-reports/internal/domain/report"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Kind selects which ranking to export.
type Kind string

const (
	KindCompanies Kind = "companies"
	KindRegions   Kind = "regions"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnknownKind   = errors.New("unknown report")
)

const (
	companiesSheet = "Companies"
	regionsSheet   = "Regions"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseKind accepts "companies" or "regions" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCompanies, KindRegions:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FormatFromPath derives the format from an output file name.
func FormatFromPath(path string) (Format, error) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(path[i+1:])
}

// ContentType returns the MIME type for f.
func ContentType(f Format) string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns a download name such as "companies.csv".
func FileName(k Kind, f Format) string {
	return string(k) + "." + string(f)
}

type companyRow struct {
	Rank         int    `csv:"rank"`
	InsurerName  string `csv:"insurer_name"`
	TotalBilled  string `csv:"total_billed"`
	TotalCovered string `csv:"total_covered"`
}

type regionRow struct {
	Rank              int    `csv:"rank"`
	Region            string `csv:"region"`
	TotalServiceCount string `csv:"total_service_count"`
}

// Write builds the requested ranking from records and writes it to w.
func Write(w io.Writer, k Kind, f Format, records []billing.ServiceRecord) error {
	switch k {
	case KindCompanies:
		rows := report.BuildCompanyReport(records)
		if f == FormatXLSX {
			return CompaniesXLSX(w, rows)
		}
		return CompaniesCSV(w, rows)
	case KindRegions:
		rows := report.BuildRegionReport(records)
		if f == FormatXLSX {
			return RegionsXLSX(w, rows)
		}
		return RegionsCSV(w, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// CompaniesCSV writes amounts with two decimals.
func CompaniesCSV(w io.Writer, rows []report.CompanyReportRow) error {
	out := make([]*companyRow, 0, len(rows))
	for i, r := range rows {
		out = append(out, &companyRow{
			Rank:         i + 1,
			InsurerName:  r.InsurerName,
			TotalBilled:  r.TotalBilled.StringFixed(2),
			TotalCovered: r.TotalCovered.StringFixed(2),
		})
	}
	if err := gocsv.Marshal(out, w); err != nil {
		return fmt.Errorf("failed to write companies CSV: %w", err)
	}
	return nil
}

// RegionsCSV writes service counts as they were summed.
func RegionsCSV(w io.Writer, rows []report.RegionReportRow) error {
	out := make([]*regionRow, 0, len(rows))
	for i, r := range rows {
		out = append(out, &regionRow{
			Rank:              i + 1,
			Region:            r.Region,
			TotalServiceCount: r.TotalServiceCount.String(),
		})
	}
	if err := gocsv.Marshal(out, w); err != nil {
		return fmt.Errorf("failed to write regions CSV: %w", err)
	}
	return nil
}

// CompaniesXLSX writes a single "Companies" sheet with numeric cells.
func CompaniesXLSX(w io.Writer, rows []report.CompanyReportRow) error {
	data := make([][]any, 0, len(rows))
	for i, r := range rows {
		data = append(data, []any{
			i + 1,
			r.InsurerName,
			r.TotalBilled.Round(2).InexactFloat64(),
			r.TotalCovered.Round(2).InexactFloat64(),
		})
	}
	return writeSheet(w, companiesSheet, []any{"Rank", "Insurer", "Total billed", "Total covered"}, data)
}

// RegionsXLSX writes a single "Regions" sheet with numeric cells.
func RegionsXLSX(w io.Writer, rows []report.RegionReportRow) error {
	data := make([][]any, 0, len(rows))
	for i, r := range rows {
		data = append(data, []any{i + 1, r.Region, r.TotalServiceCount.InexactFloat64()})
	}
	return writeSheet(w, regionsSheet, []any{"Rank", "Region", "Total services"}, data)
}

func writeSheet(w io.Writer, sheet string, header []any, data [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
