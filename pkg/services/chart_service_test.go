package services

import (
	"encoding/base64"
	"testing"

	"demand-forecast-web/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func decodePNG(t *testing.T, encoded string) []byte {
	t.Helper()

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Greater(t, len(raw), len(pngMagic))
	assert.Equal(t, pngMagic, raw[:len(pngMagic)], "output is not a PNG image")
	return raw
}

func TestHistoricalChart(t *testing.T) {
	cs := NewChartService()
	series := yearlySeries(2015, 100, 120, 90, 140, 110, 160, 130, 170, 150, 180)

	encoded, err := cs.HistoricalChart(series, "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}

func TestHistoricalChartSinglePoint(t *testing.T) {
	cs := NewChartService()

	encoded, err := cs.HistoricalChart(yearlySeries(2020, 150), "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}

func TestHistoricalChartFlatSeries(t *testing.T) {
	cs := NewChartService()

	// A product can legitimately sell the same total every year; the chart
	// must still render instead of collapsing the y-axis
	encoded, err := cs.HistoricalChart(yearlySeries(2015, 100, 100, 100, 100), "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}

func TestHistoricalChartEmptyProducesPlaceholder(t *testing.T) {
	cs := NewChartService()

	encoded, err := cs.HistoricalChart(nil, "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}

func TestForecastChart(t *testing.T) {
	cs := NewChartService()
	points := []models.ForecastPoint{
		{Year: 2025, Value: 181.4},
		{Year: 2026, Value: 175.2},
		{Year: 2027, Value: 190.8},
		{Year: 2028, Value: 184.1},
		{Year: 2029, Value: 197.6},
	}

	encoded, err := cs.ForecastChart(points, "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}

func TestForecastChartFlatValues(t *testing.T) {
	cs := NewChartService()
	points := []models.ForecastPoint{
		{Year: 2025, Value: 10},
		{Year: 2026, Value: 10},
	}

	encoded, err := cs.ForecastChart(points, "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}

func TestForecastChartEmptyProducesPlaceholder(t *testing.T) {
	cs := NewChartService()

	encoded, err := cs.ForecastChart(nil, "A1")
	require.NoError(t, err)
	decodePNG(t, encoded)
}
