package models

// DemandRecord is one row of the historical demand dataset. The date is kept
// as the raw dataset string; series preparation parses it per request.
type DemandRecord struct {
	ProductCode string `json:"product_code"`
	Date        string `json:"date"`
	Quantity    int    `json:"quantity"`
}

// YearlyPoint is one aggregated point of a product's yearly demand series.
type YearlyPoint struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// ForecastPoint is one predicted value of a forecast.
type ForecastPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ForecastRequest 需要予測リクエスト構造体
type ForecastRequest struct {
	ProductCode string `json:"product_code"`
}

// ForecastResponse 需要予測結果
type ForecastResponse struct {
	ProductCode string          `json:"product_code"`
	Historical  []YearlyPoint   `json:"historical"`
	Forecast    []ForecastPoint `json:"forecast"`
}
