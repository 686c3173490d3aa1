package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
)

const header = "NumeroRegistro,CompaniaSeguro,Anio,Mes,CantidadServicios,Region,ValorPorServicio,PorcentajeCobertura"

func TestParseCSV(t *testing.T) {
	t.Run("parses rows keyed by header", func(t *testing.T) {
		text := header + "\n1,Acme,2024,3,10,North,100,50\n2,Acme,2024,4,5,South,100,50"

		rows := ParseCSV(text)

		require.Len(t, rows, 2)
		assert.Equal(t, []string{
			"NumeroRegistro", "CompaniaSeguro", "Anio", "Mes",
			"CantidadServicios", "Region", "ValorPorServicio", "PorcentajeCobertura",
		}, rows[0].Keys())

		v, ok := rows[1].Get("Region")
		assert.True(t, ok)
		assert.Equal(t, "South", v)
	})

	t.Run("handles CRLF and blank lines", func(t *testing.T) {
		text := "a,b\r\n\r\n1,2\r\n   \r\n3,4\r\n\r\n"

		rows := ParseCSV(text)

		require.Len(t, rows, 2)
		v, _ := rows[0].Get("b")
		assert.Equal(t, "2", v)
		v, _ = rows[1].Get("a")
		assert.Equal(t, "3", v)
	})

	t.Run("trims cells and headers", func(t *testing.T) {
		rows := ParseCSV("  a , b \n  x ,  y  ")

		require.Len(t, rows, 1)
		assert.Equal(t, []string{"a", "b"}, rows[0].Keys())
		v, _ := rows[0].Get("b")
		assert.Equal(t, "y", v)
	})

	t.Run("missing cells are empty and extras ignored", func(t *testing.T) {
		rows := ParseCSV("a,b,c\n1\n1,2,3,4")

		require.Len(t, rows, 2)
		v, ok := rows[0].Get("c")
		assert.True(t, ok)
		assert.Equal(t, "", v)
		assert.Equal(t, 3, rows[1].Len())
	})

	t.Run("header only", func(t *testing.T) {
		assert.Empty(t, ParseCSV(header+"\n"))
	})

	t.Run("empty and whitespace input", func(t *testing.T) {
		assert.Empty(t, ParseCSV(""))
		assert.Empty(t, ParseCSV(" \n\t\r\n "))
	})

	t.Run("quoted commas are not supported", func(t *testing.T) {
		rows := ParseCSV("name,region\n\"Acme, Inc\",North")

		require.Len(t, rows, 1)
		v, _ := rows[0].Get("name")
		assert.Equal(t, "\"Acme", v)
		v, _ = rows[0].Get("region")
		assert.Equal(t, "Inc\"", v)
	})

	t.Run("duplicate header keeps last value", func(t *testing.T) {
		rows := ParseCSV("a,b,a\n1,2,3")

		require.Len(t, rows, 1)
		assert.Equal(t, []string{"a", "b"}, rows[0].Keys())
		v, _ := rows[0].Get("a")
		assert.Equal(t, "3", v)
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("array of objects keeps key order", func(t *testing.T) {
		text := `[{"Region":"North","NumeroRegistro":1,"ValorPorServicio":100.50,"CompaniaSeguro":" Acme "}]`

		rows, err := ParseJSON(text)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"Region", "NumeroRegistro", "ValorPorServicio", "CompaniaSeguro"}, rows[0].Keys())

		v, _ := rows[0].Get("ValorPorServicio")
		assert.Equal(t, "100.50", v)
		v, _ = rows[0].Get("CompaniaSeguro")
		assert.Equal(t, " Acme ", v)
	})

	t.Run("scalar conversions", func(t *testing.T) {
		rows, err := ParseJSON(`[{"a":null,"b":true,"c":{"x":1},"d":"ñ","e":1e3}]`)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		tests := map[string]string{"a": "", "b": "true", "c": `{"x":1}`, "d": "ñ", "e": "1e3"}
		for key, want := range tests {
			got, ok := rows[0].Get(key)
			assert.True(t, ok, key)
			assert.Equal(t, want, got, key)
		}
	})

	t.Run("non-array top level yields no rows", func(t *testing.T) {
		for _, text := range []string{`{"not":"an array"}`, `"text"`, `42`, `null`, "  "} {
			rows, err := ParseJSON(text)
			require.NoError(t, err, text)
			assert.Empty(t, rows, text)
		}
	})

	t.Run("non-object elements become empty rows", func(t *testing.T) {
		rows, err := ParseJSON(`[1, "x", null, {"a":"b"}]`)

		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, 0, rows[0].Len())
		assert.Equal(t, 0, rows[2].Len())
		assert.Equal(t, 1, rows[3].Len())
	})

	t.Run("malformed", func(t *testing.T) {
		for _, text := range []string{`[{"a":1}`, `{"a":}`, `[1,2]]`, `nope`} {
			rows, err := ParseJSON(text)
			assert.ErrorIs(t, err, ErrMalformedJSON, text)
			assert.Nil(t, rows, text)
		}
	})

	t.Run("empty array", func(t *testing.T) {
		rows, err := ParseJSON(`[]`)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestParse(t *testing.T) {
	rows, err := Parse(source.FormatCSV, "a\n1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = Parse(source.FormatJSON, `[{"a":1}]`)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Parse("xml", "<a/>")
	assert.ErrorIs(t, err, source.ErrUnsupportedFormat)
}
