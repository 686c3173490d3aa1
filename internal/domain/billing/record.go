// Package billing defines the canonical service-billing record shared by the
// import pipeline and the reports built on top of it.
package billing

import "github.com/shopspring/decimal"

// Source header names. CSV headers and JSON keys must match these exactly.
const (
	FieldRecordNumber    = "NumeroRegistro"
	FieldInsurerName     = "CompaniaSeguro"
	FieldYear            = "Anio"
	FieldMonth           = "Mes"
	FieldServiceCount    = "CantidadServicios"
	FieldRegion          = "Region"
	FieldUnitPrice       = "ValorPorServicio"
	FieldCoveragePercent = "PorcentajeCobertura"
)

// RequiredFields lists every header a row must carry, in the order they are
// checked. The first one missing is the one reported.
var RequiredFields = []string{
	FieldRecordNumber,
	FieldInsurerName,
	FieldYear,
	FieldMonth,
	FieldServiceCount,
	FieldRegion,
	FieldUnitPrice,
	FieldCoveragePercent,
}

// ServiceRecord is one billed service event after validation.
type ServiceRecord struct {
	RecordNumber    int             `json:"record_number"`
	InsurerName     string          `json:"insurer_name"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	ServiceCount    decimal.Decimal `json:"service_count"`
	Region          string          `json:"region"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CoveragePercent decimal.Decimal `json:"coverage_percent"`
}

// Billed returns UnitPrice × ServiceCount.
func (r ServiceRecord) Billed() decimal.Decimal {
	return r.UnitPrice.Mul(r.ServiceCount)
}

// Covered returns the share of Billed paid by the insurer. Dividing by 100 is
// a decimal shift, so the result stays exact.
func (r ServiceRecord) Covered() decimal.Decimal {
	return r.Billed().Mul(r.CoveragePercent).Shift(-2)
}

// Equal reports whether two records hold the same values. Decimals are
// compared numerically, so 1.50 equals 1.5.
func (r ServiceRecord) Equal(o ServiceRecord) bool {
	return r.RecordNumber == o.RecordNumber &&
		r.InsurerName == o.InsurerName &&
		r.Year == o.Year &&
		r.Month == o.Month &&
		r.ServiceCount.Equal(o.ServiceCount) &&
		r.Region == o.Region &&
		r.UnitPrice.Equal(o.UnitPrice) &&
		r.CoveragePercent.Equal(o.CoveragePercent)
}
