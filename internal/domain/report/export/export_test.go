package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
)

func sampleRecords() []billing.ServiceRecord {
	return []billing.ServiceRecord{
		{InsurerName: "Acme", Region: "North", Year: 2024, ServiceCount: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), CoveragePercent: decimal.NewFromInt(50)},
		{InsurerName: "Acme", Region: "South", Year: 2024, ServiceCount: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100), CoveragePercent: decimal.NewFromInt(50)},
		{InsurerName: "Beta", Region: "South", Year: 2024, ServiceCount: decimal.RequireFromString("2.5"), UnitPrice: decimal.RequireFromString("33.33"), CoveragePercent: decimal.NewFromInt(100)},
	}
}

func TestWrite_CSV(t *testing.T) {
	t.Run("companies", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, KindCompanies, FormatCSV, sampleRecords()))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "rank,insurer_name,total_billed,total_covered", lines[0])
		assert.Equal(t, "1,Acme,1500.00,750.00", lines[1])
		assert.Equal(t, "2,Beta,83.33,83.33", lines[2])
	})

	t.Run("regions", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, KindRegions, FormatCSV, sampleRecords()))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "rank,region,total_service_count", lines[0])
		assert.Equal(t, "1,North,10", lines[1])
		assert.Equal(t, "2,South,7.5", lines[2])
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, KindCompanies, FormatCSV, nil))
		assert.Equal(t, "rank,insurer_name,total_billed,total_covered", strings.TrimSpace(buf.String()))
	})
}

func TestWrite_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, KindCompanies, FormatXLSX, sampleRecords()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Companies"}, f.GetSheetList())
	rows, err := f.GetRows("Companies")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rank", "Insurer", "Total billed", "Total covered"}, rows[0])
	assert.Equal(t, "Acme", rows[1][1])
	assert.Equal(t, "1500", rows[1][2])
	assert.Equal(t, "750", rows[1][3])
	assert.Equal(t, "Beta", rows[2][1])

	buf.Reset()
	require.NoError(t, Write(&buf, KindRegions, FormatXLSX, sampleRecords()))
	f2, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f2.Close()

	rows, err = f2.GetRows("Regions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "North", "10"}, rows[1])
	assert.Equal(t, []string{"2", "South", "7.5"}, rows[2])
}

func TestParse(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	k, err := ParseKind("Regions")
	require.NoError(t, err)
	assert.Equal(t, KindRegions, k)

	_, err = ParseKind("summary")
	assert.ErrorIs(t, err, ErrUnknownKind)

	f, err = FormatFromPath("out/report.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromPath("report")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, "companies.xlsx", FileName(KindCompanies, FormatXLSX))
	assert.Contains(t, ContentType(FormatCSV), "text/csv")
}
