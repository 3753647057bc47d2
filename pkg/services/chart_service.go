package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	"demand-forecast-web/pkg/models"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// チャートの描画サイズとX軸の固定範囲
const (
	chartWidth  = 900
	chartHeight = 520

	historyAxisMin  = HistoryStartYear - 1
	historyAxisMax  = HistoryEndYear + 1
	forecastAxisMin = ForecastStartYear - 1
	forecastAxisMax = ForecastEndYear + 1
)

// ChartService 年次系列と予測結果をPNGチャートとして描画する
type ChartService struct{}

// NewChartService 新しいチャートサービスを作成
func NewChartService() *ChartService {
	return &ChartService{}
}

// HistoricalChart 過去の年次需要の折れ線チャートを描画し、base64で返す。
// 系列が空の場合はメッセージ入りのプレースホルダー画像を返す。
func (cs *ChartService) HistoricalChart(series []models.YearlyPoint, productCode string) (string, error) {
	if len(series) == 0 {
		return cs.placeholder("No historical data available for the selected product between 2015-2024.")
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.Year)
		ys[i] = p.Total
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Historical Yearly Demand for %s", productCode),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           "Year",
			Range:          &chart.ContinuousRange{Min: historyAxisMin, Max: historyAxisMax},
			ValueFormatter: yearFormatter,
		},
		YAxis: yAxisFor(ys),
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Historical Demand",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
					DotColor:    drawing.ColorBlue,
					DotWidth:    4,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return encodeChart(&graph)
}

// ForecastChart 予測需要の破線チャートを描画し、base64で返す。
// 各点には四捨五入した予測値の注釈を付ける。予測が空の場合は
// メッセージ入りのプレースホルダー画像を返す。
func (cs *ChartService) ForecastChart(points []models.ForecastPoint, productCode string) (string, error) {
	if len(points) == 0 {
		return cs.placeholder("No forecast data available between 2025-2029.")
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	annotations := make([]chart.Value2, len(points))
	for i, p := range points {
		xs[i] = float64(p.Year)
		ys[i] = p.Value
		annotations[i] = chart.Value2{
			XValue: float64(p.Year),
			YValue: p.Value,
			Label:  fmt.Sprintf("%.0f", p.Value),
		}
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Forecasted Yearly Demand for %s", productCode),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           "Year",
			Range:          &chart.ContinuousRange{Min: forecastAxisMin, Max: forecastAxisMax},
			ValueFormatter: yearFormatter,
		},
		YAxis: yAxisFor(ys),
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Forecasted Demand",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor:     drawing.ColorRed,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
					DotColor:        drawing.ColorRed,
					DotWidth:        4,
				},
			},
			chart.AnnotationSeries{
				Annotations: annotations,
				Style: chart.Style{
					StrokeColor: drawing.ColorGreen,
					FontColor:   drawing.ColorGreen,
					FontSize:    9,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return encodeChart(&graph)
}

// placeholder チャートの代わりに表示するメッセージのみの画像を描画する
func (cs *ChartService) placeholder(message string) (string, error) {
	r, err := chart.PNG(chartWidth, chartHeight)
	if err != nil {
		return "", err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return "", err
	}

	chart.Draw.Box(r, chart.Box{Right: chartWidth, Bottom: chartHeight}, chart.Style{
		FillColor: drawing.ColorWhite,
	})
	chart.Draw.TextWithin(r, message, chart.Box{
		Left:   40,
		Top:    chartHeight/2 - 40,
		Right:  chartWidth - 40,
		Bottom: chartHeight/2 + 40,
	}, chart.Style{
		Font:                font,
		FontSize:            14,
		FontColor:           drawing.ColorFromHex("555555"),
		TextHorizontalAlign: chart.TextHorizontalAlignCenter,
		TextVerticalAlign:   chart.TextVerticalAlignMiddle,
		TextWrap:            chart.TextWrapWord,
	})

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// encodeChart チャートをPNGにレンダリングしてbase64文字列にする
func encodeChart(graph *chart.Chart) (string, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// yAxisFor 値に応じたY軸を構築する。全ての値が等しい系列は軸の範囲が
// 潰れてレンダリングが終わらなくなるため、値の前後に1だけ幅を持たせた
// 明示的な範囲を設定する。
func yAxisFor(ys []float64) chart.YAxis {
	axis := chart.YAxis{Name: "Product Demand"}

	min, max := ys[0], ys[0]
	for _, v := range ys[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		axis.Range = &chart.ContinuousRange{Min: min - 1, Max: max + 1}
	}
	return axis
}

// yearFormatter X軸の年ラベルを整数で表示する
func yearFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(math.Round(f)))
	}
	return ""
}
