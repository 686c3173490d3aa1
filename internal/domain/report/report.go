// Package report aggregates billing records into the company ranking, the
// region ranking and the period summary. Every function here is pure and
// recomputes from scratch.
package report

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
)

// NoDataLabel is the period label for a collection with no years.
const NoDataLabel = "no data"

// CompanyReportRow totals one insurer.
type CompanyReportRow struct {
	InsurerName  string          `json:"insurer_name"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	TotalCovered decimal.Decimal `json:"total_covered"`
}

// RegionReportRow totals one region.
type RegionReportRow struct {
	Region            string          `json:"region"`
	TotalServiceCount decimal.Decimal `json:"total_service_count"`
}

// PeriodSummary describes a whole collection.
type PeriodSummary struct {
	TotalServiceCount decimal.Decimal `json:"total_service_count"`
	TotalBilled       decimal.Decimal `json:"total_billed"`
	TotalCovered      decimal.Decimal `json:"total_covered"`
	InsurerCount      int             `json:"insurer_count"`
	RegionCount       int             `json:"region_count"`
	Period            string          `json:"period"`
}

// BuildCompanyReport groups by insurer, sorted by TotalCovered descending,
// then by InsurerName so the order does not depend on the input order.
func BuildCompanyReport(records []billing.ServiceRecord) []CompanyReportRow {
	index := make(map[string]int)
	rows := make([]CompanyReportRow, 0)

	for _, r := range records {
		i, ok := index[r.InsurerName]
		if !ok {
			i = len(rows)
			index[r.InsurerName] = i
			rows = append(rows, CompanyReportRow{
				InsurerName:  r.InsurerName,
				TotalBilled:  decimal.Zero,
				TotalCovered: decimal.Zero,
			})
		}
		rows[i].TotalBilled = rows[i].TotalBilled.Add(r.Billed())
		rows[i].TotalCovered = rows[i].TotalCovered.Add(r.Covered())
	}

	sort.Slice(rows, func(a, b int) bool {
		if c := rows[a].TotalCovered.Cmp(rows[b].TotalCovered); c != 0 {
			return c > 0
		}
		return rows[a].InsurerName < rows[b].InsurerName
	})
	return rows
}

// BuildRegionReport groups by region, sorted by TotalServiceCount descending,
// then by Region.
func BuildRegionReport(records []billing.ServiceRecord) []RegionReportRow {
	index := make(map[string]int)
	rows := make([]RegionReportRow, 0)

	for _, r := range records {
		i, ok := index[r.Region]
		if !ok {
			i = len(rows)
			index[r.Region] = i
			rows = append(rows, RegionReportRow{Region: r.Region, TotalServiceCount: decimal.Zero})
		}
		rows[i].TotalServiceCount = rows[i].TotalServiceCount.Add(r.ServiceCount)
	}

	sort.Slice(rows, func(a, b int) bool {
		if c := rows[a].TotalServiceCount.Cmp(rows[b].TotalServiceCount); c != 0 {
			return c > 0
		}
		return rows[a].Region < rows[b].Region
	})
	return rows
}

// BuildSummary returns nil for an empty collection.
func BuildSummary(records []billing.ServiceRecord) *PeriodSummary {
	if len(records) == 0 {
		return nil
	}

	s := &PeriodSummary{
		TotalServiceCount: decimal.Zero,
		TotalBilled:       decimal.Zero,
		TotalCovered:      decimal.Zero,
	}
	insurers := make(map[string]struct{})
	regions := make(map[string]struct{})

	for _, r := range records {
		s.TotalServiceCount = s.TotalServiceCount.Add(r.ServiceCount)
		s.TotalBilled = s.TotalBilled.Add(r.Billed())
		s.TotalCovered = s.TotalCovered.Add(r.Covered())
		insurers[r.InsurerName] = struct{}{}
		regions[r.Region] = struct{}{}
	}

	s.InsurerCount = len(insurers)
	s.RegionCount = len(regions)
	s.Period = PeriodLabel(records)
	return s
}

// PeriodLabel is "no data" without records, the year when there is only one,
// and "<min> - <max>" otherwise.
func PeriodLabel(records []billing.ServiceRecord) string {
	if len(records) == 0 {
		return NoDataLabel
	}

	lo, hi := records[0].Year, records[0].Year
	for _, r := range records[1:] {
		lo = min(lo, r.Year)
		hi = max(hi, r.Year)
	}

	if lo == hi {
		return strconv.Itoa(lo)
	}
	return strconv.Itoa(lo) + " - " + strconv.Itoa(hi)
}
