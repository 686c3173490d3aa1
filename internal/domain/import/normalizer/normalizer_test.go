package normalizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/parser"
)

const header = "NumeroRegistro,CompaniaSeguro,Anio,Mes,CantidadServicios,Region,ValorPorServicio,PorcentajeCobertura"

func TestNormalize(t *testing.T) {
	t.Run("converts rows in order", func(t *testing.T) {
		rows := parser.ParseCSV(header + "\n1, Acme ,2024,3,10,  North ,100.50,50\n2,Beta,2025,12,2.5,South,99,0")

		records, err := Normalize(rows)

		require.NoError(t, err)
		require.Len(t, records, 2)

		first := records[0]
		assert.Equal(t, 1, first.RecordNumber)
		assert.Equal(t, "Acme", first.InsurerName)
		assert.Equal(t, 2024, first.Year)
		assert.Equal(t, 3, first.Month)
		assert.Equal(t, "North", first.Region)
		assert.True(t, first.UnitPrice.Equal(decimal.RequireFromString("100.5")))
		assert.True(t, first.CoveragePercent.Equal(decimal.NewFromInt(50)))

		assert.Equal(t, "Beta", records[1].InsurerName)
		assert.True(t, records[1].ServiceCount.Equal(decimal.RequireFromString("2.5")))
	})

	t.Run("empty input", func(t *testing.T) {
		records, err := Normalize(nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("empty strings are allowed", func(t *testing.T) {
		rows := parser.ParseCSV(header + "\n1,,2024,3,,,100,")

		records, err := Normalize(rows)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "", records[0].InsurerName)
		assert.Equal(t, "", records[0].Region)
		assert.True(t, records[0].ServiceCount.IsZero())
		assert.True(t, records[0].CoveragePercent.IsZero())
	})

	t.Run("missing header", func(t *testing.T) {
		text := "NumeroRegistro,CompaniaSeguro,Anio,Mes,CantidadServicios,ValorPorServicio,PorcentajeCobertura\n1,Acme,2024,3,10,100,50"

		records, err := Normalize(parser.ParseCSV(text))

		require.ErrorIs(t, err, ErrMissingField)
		assert.Nil(t, records)

		var mf *MissingFieldError
		require.True(t, errors.As(err, &mf))
		assert.Equal(t, "Region", mf.Field)
		assert.Equal(t, 1, mf.Row)
		assert.Empty(t, mf.Suggestion)
	})

	t.Run("missing header suggests near miss", func(t *testing.T) {
		text := strings.Replace(header, "Region", "region ", 1) + "\n1,Acme,2024,3,10,North,100,50"

		_, err := Normalize(parser.ParseCSV(text))

		var mf *MissingFieldError
		require.True(t, errors.As(err, &mf))
		assert.Equal(t, "Region", mf.Field)
		assert.Equal(t, "region", mf.Suggestion)
		assert.Contains(t, mf.Error(), "region")
	})

	t.Run("first missing field in canonical order", func(t *testing.T) {
		rows, err := parser.ParseJSON(`[{"Region":"North"}]`)
		require.NoError(t, err)

		_, err = Normalize(rows)

		var mf *MissingFieldError
		require.True(t, errors.As(err, &mf))
		assert.Equal(t, billing.FieldRecordNumber, mf.Field)
	})

	t.Run("non-object JSON element", func(t *testing.T) {
		rows, err := parser.ParseJSON(`[42]`)
		require.NoError(t, err)

		_, err = Normalize(rows)
		assert.ErrorIs(t, err, ErrMissingField)
	})
}

func TestNormalize_InvalidNumeric(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"text count", "1,Acme,2024,3,ten,North,100,50", billing.FieldServiceCount},
		{"text price", "1,Acme,2024,3,10,North,abc,50", billing.FieldUnitPrice},
		{"percent sign", "1,Acme,2024,3,10,North,100,50%", billing.FieldCoveragePercent},
		{"fractional year", "1,Acme,2024.5,3,10,North,100,50", billing.FieldYear},
		{"hex month", "1,Acme,2024,0x3,10,North,100,50", billing.FieldMonth},
		{"infinity", "1,Acme,2024,3,Infinity,North,100,50", billing.FieldServiceCount},
		{"NaN record", "NaN,Acme,2024,3,10,North,100,50", billing.FieldRecordNumber},
		{"double sign", "1,Acme,2024,3,10,North,+-100,50", billing.FieldUnitPrice},
		{"overflowing count", "1,Acme,2024,3,1e400,North,100,50", billing.FieldServiceCount},
		{"huge exponent price", "1,Acme,2024,3,10,North,1e50000000,50", billing.FieldUnitPrice},
		{"negative overflow percent", "1,Acme,2024,3,10,North,100,-2e308", billing.FieldCoveragePercent},
		{"overflowing year", "1,Acme,1e400,3,10,North,100,50", billing.FieldYear},
		{"large integer record", "1e300,Acme,2024,3,10,North,100,50", billing.FieldRecordNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := header + "\n2,Ok,2024,1,1,NOA,1,1\n" + tt.row

			records, err := Normalize(parser.ParseCSV(text))

			require.ErrorIs(t, err, ErrInvalidNumeric)
			assert.Nil(t, records, "no partial collection")

			var ne *InvalidNumericError
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, tt.field, ne.Field)
			assert.Equal(t, 2, ne.Row)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"   ", "0"},
		{" 42 ", "42"},
		{"+7", "7"},
		{"-3.25", "-3.25"},
		{"1e3", "1000"},
		{"0.10", "0.1"},
		{"1e308", "1e308"},
		{"-1.5e-300", "-1.5e-300"},
		{"1e-400", "0"},
		{"0e99999999", "0"},
		{"2e-50000000", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestNormalize_JSONNullIsEmpty(t *testing.T) {
	rows, err := parser.ParseJSON(`[{"NumeroRegistro":1,"CompaniaSeguro":null,"Anio":2024,"Mes":null,` +
		`"CantidadServicios":2,"Region":null,"ValorPorServicio":10,"PorcentajeCobertura":50}]`)
	require.NoError(t, err)

	records, err := Normalize(rows)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].InsurerName)
	assert.Equal(t, "", records[0].Region)
	assert.Equal(t, 0, records[0].Month)
}

func TestParseNumber_OutOfRange(t *testing.T) {
	for _, in := range []string{"1e309", "-1e309", "1.8e308", "1e400", "1e50000000", "223456789e300"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseNumber(in)
			assert.Error(t, err)
		})
	}
}

// Accepted values must keep aggregation cheap: summing a tiny literal with an
// ordinary one stays in range and fast.
func TestNormalize_TinyLiteralSumsQuickly(t *testing.T) {
	text := header + "\n1,Acme,2024,3,1e-50000000,North,100,50\n2,Acme,2024,3,1.5,North,100,50"

	records, err := Normalize(parser.ParseCSV(text))
	require.NoError(t, err)
	require.Len(t, records, 2)

	total := records[0].ServiceCount.Add(records[1].ServiceCount)
	assert.True(t, total.Equal(decimal.RequireFromString("1.5")), total.String())
}

// Same records through both encodings must normalize identically.
func TestNormalize_CSVJSONEquivalence(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 2025} {
		gen := billing.NewTestDataGeneratorWithSeed(seed)
		want := gen.Records(50)

		fromCSV, err := Normalize(parser.ParseCSV(billing.EncodeCSV(want)))
		require.NoError(t, err)

		jsonText, err := billing.EncodeJSON(want)
		require.NoError(t, err)
		jsonRows, err := parser.ParseJSON(jsonText)
		require.NoError(t, err)
		fromJSON, err := Normalize(jsonRows)
		require.NoError(t, err)

		require.Len(t, fromCSV, len(want))
		require.Len(t, fromJSON, len(want))
		for i := range want {
			assert.True(t, fromCSV[i].Equal(fromJSON[i]), "seed %d row %d", seed, i)
			assert.True(t, fromCSV[i].Equal(want[i]), "seed %d row %d", seed, i)
		}
	}
}

// A single bad cell anywhere rejects the whole set.
func TestNormalize_AllOrNothing(t *testing.T) {
	gen := billing.NewTestDataGeneratorWithSeed(99)
	records := gen.Records(20)

	for _, bad := range []int{0, 9, 19} {
		lines := strings.Split(billing.EncodeCSV(records), "\n")
		cells := strings.Split(lines[bad+1], ",")
		cells[6] = "n/a"
		lines[bad+1] = strings.Join(cells, ",")

		got, err := Normalize(parser.ParseCSV(strings.Join(lines, "\n")))

		assert.ErrorIs(t, err, ErrInvalidNumeric)
		assert.Nil(t, got)
	}
}
