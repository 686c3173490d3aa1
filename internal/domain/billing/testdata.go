package billing

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic service records using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0),
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// Names never contain commas: the CSV reader does not support quoting.
var (
	insurers = []string{
		"Sancor Seguros", "La Caja", "Federación Patronal", "Mapfre",
		"Rivadavia Seguros", "Allianz", "San Cristóbal", "Zurich",
	}
	regions = []string{
		"NOA", "NEA", "Cuyo", "Pampeana", "Patagonia", "AMBA",
	}
)

// Record generates a single random service record.
func (g *TestDataGenerator) Record(recordNumber int) ServiceRecord {
	return ServiceRecord{
		RecordNumber:    recordNumber,
		InsurerName:     g.faker.RandomString(insurers),
		Year:            g.faker.IntRange(2023, 2025),
		Month:           g.faker.IntRange(1, 12),
		ServiceCount:    decimal.NewFromInt(int64(g.faker.IntRange(1, 120))),
		Region:          g.faker.RandomString(regions),
		UnitPrice:       decimal.New(int64(g.faker.IntRange(1500, 950000)), -2),
		CoveragePercent: decimal.NewFromInt(int64(g.faker.IntRange(0, 100))),
	}
}

// Records generates count records numbered from 1.
func (g *TestDataGenerator) Records(count int) []ServiceRecord {
	records := make([]ServiceRecord, count)
	for i := 0; i < count; i++ {
		records[i] = g.Record(i + 1)
	}
	return records
}

// Shuffle returns a reordered copy of records.
func (g *TestDataGenerator) Shuffle(records []ServiceRecord) []ServiceRecord {
	shuffled := make([]ServiceRecord, len(records))
	copy(shuffled, records)
	g.faker.ShuffleAnySlice(shuffled)
	return shuffled
}

// EncodeCSV writes records in the source CSV layout.
func EncodeCSV(records []ServiceRecord) string {
	var b strings.Builder
	b.WriteString(strings.Join(RequiredFields, ","))
	for _, r := range records {
		b.WriteString("\n")
		b.WriteString(strings.Join([]string{
			strconv.Itoa(r.RecordNumber),
			r.InsurerName,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			r.ServiceCount.String(),
			r.Region,
			r.UnitPrice.String(),
			r.CoveragePercent.String(),
		}, ","))
	}
	return b.String()
}

type jsonRecord struct {
	RecordNumber    int         `json:"NumeroRegistro"`
	InsurerName     string      `json:"CompaniaSeguro"`
	Year            int         `json:"Anio"`
	Month           int         `json:"Mes"`
	ServiceCount    json.Number `json:"CantidadServicios"`
	Region          string      `json:"Region"`
	UnitPrice       json.Number `json:"ValorPorServicio"`
	CoveragePercent json.Number `json:"PorcentajeCobertura"`
}

// EncodeJSON writes records in the source JSON layout.
func EncodeJSON(records []ServiceRecord) (string, error) {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, jsonRecord{
			RecordNumber:    r.RecordNumber,
			InsurerName:     r.InsurerName,
			Year:            r.Year,
			Month:           r.Month,
			ServiceCount:    json.Number(r.ServiceCount.String()),
			Region:          r.Region,
			UnitPrice:       json.Number(r.UnitPrice.String()),
			CoveragePercent: json.Number(r.CoveragePercent.String()),
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
