package services

import (
	"fmt"

	"demand-forecast-web/pkg/arima"
	"demand-forecast-web/pkg/models"
)

// モデル次数と予測期間は固定の設定値。系列ごとのチューニングは行わない。
const (
	ModelOrderP = 5
	ModelOrderD = 1
	ModelOrderQ = 0

	ForecastHorizon   = 5
	ForecastStartYear = 2025
	ForecastEndYear   = 2029
)

// ForecastService 年次需要系列にARIMAモデルを適合させて将来需要を予測する
type ForecastService struct{}

// NewForecastService 新しい予測サービスを作成
func NewForecastService() *ForecastService {
	return &ForecastService{}
}

// Train 年次系列に固定次数のARIMAモデルを適合させる。
// データ点が不足している場合や数値的に収束しない場合はエラーを返す。
func (fs *ForecastService) Train(series []models.YearlyPoint) (*arima.Model, error) {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Total
	}

	model := arima.New(ModelOrderP, ModelOrderD, ModelOrderQ)
	if err := model.Fit(values); err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}
	return model, nil
}

// Forecast 学習済みモデルで最終観測年の翌年から5年分を予測する
func (fs *ForecastService) Forecast(model *arima.Model, series []models.YearlyPoint) ([]models.ForecastPoint, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("cannot forecast an empty series")
	}

	values, err := model.Forecast(ForecastHorizon)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}

	lastYear := series[len(series)-1].Year
	points := make([]models.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = models.ForecastPoint{Year: lastYear + i + 1, Value: v}
	}
	return points, nil
}

// FilterDisplayYears 表示対象の2025〜2029年に予測を絞り込む
func FilterDisplayYears(points []models.ForecastPoint) []models.ForecastPoint {
	var filtered []models.ForecastPoint
	for _, p := range points {
		if p.Year >= ForecastStartYear && p.Year <= ForecastEndYear {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
