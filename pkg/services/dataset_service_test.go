package services

import (
	"path/filepath"
	"testing"

	"demand-forecast-web/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func loadFixtureDataset(t *testing.T) *DatasetService {
	t.Helper()

	ds, err := NewDatasetService(filepath.Join("testdata", "demand.csv"))
	require.NoError(t, err)
	return ds
}

func TestNewDatasetServiceMissingFile(t *testing.T) {
	_, err := NewDatasetService(filepath.Join("testdata", "does-not-exist.csv"))
	assert.Error(t, err)
}

func TestNewDatasetServiceFromRowsMissingColumns(t *testing.T) {
	rows := [][]string{
		{"Foo", "Bar"},
		{"x", "y"},
	}

	_, err := NewDatasetServiceFromRows(rows)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestNewDatasetServiceFromRowsNoUsableRows(t *testing.T) {
	rows := [][]string{
		{"Product_Code", "Date", "Order_Demand"},
		{"A1", "2015/1/1", "not-a-number"},
	}

	_, err := NewDatasetServiceFromRows(rows)
	assert.Error(t, err)
}

func TestProductCodesSorted(t *testing.T) {
	ds := loadFixtureDataset(t)

	assert.Equal(t, []string{"A1", "B2", "C3"}, ds.ProductCodes())
}

func TestNonNumericQuantityDropped(t *testing.T) {
	ds := loadFixtureDataset(t)

	// 18 data rows in the fixture, one with quantity "(500)"
	assert.Equal(t, 17, ds.RecordCount())
}

func TestPrepareYearlySeries(t *testing.T) {
	ds := loadFixtureDataset(t)

	series := ds.PrepareYearlySeries("A1")
	require.Len(t, series, 10)

	// 2015 sums two valid rows; the unparseable-date row is rejected and
	// the non-numeric quantity row was never loaded
	assert.Equal(t, models.YearlyPoint{Year: 2015, Total: 100}, series[0])
	assert.Equal(t, models.YearlyPoint{Year: 2024, Total: 180}, series[9])

	for i := 1; i < len(series); i++ {
		assert.Greater(t, series[i].Year, series[i-1].Year, "series must be sorted by year")
	}
}

func TestPrepareYearlySeriesWindowExcludesOutsideYears(t *testing.T) {
	ds := loadFixtureDataset(t)

	series := ds.PrepareYearlySeries("A1")
	for _, p := range series {
		assert.GreaterOrEqual(t, p.Year, HistoryStartYear)
		assert.LessOrEqual(t, p.Year, HistoryEndYear)
	}

	// C3 only has records before 2015
	assert.Empty(t, ds.PrepareYearlySeries("C3"))
}

func TestPrepareYearlySeriesUnknownProduct(t *testing.T) {
	ds := loadFixtureDataset(t)

	assert.Empty(t, ds.PrepareYearlySeries("ZZZ"))
}

func TestNewDatasetServiceXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demand.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Product_Code", "Date", "Order_Demand"},
		{"A1", "2015/1/15", "60"},
		{"A1", "2015/7/2", "40"},
		{"A1", "2016/3/11", "120"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := NewDatasetService(path)
	require.NoError(t, err)

	series := ds.PrepareYearlySeries("A1")
	require.Len(t, series, 2)
	assert.Equal(t, models.YearlyPoint{Year: 2015, Total: 100}, series[0])
	assert.Equal(t, models.YearlyPoint{Year: 2016, Total: 120}, series[1])
}
