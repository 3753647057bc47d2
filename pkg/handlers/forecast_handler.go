package handlers

import (
	"log"
	"net/http"

	"demand-forecast-web/pkg/models"
	"demand-forecast-web/pkg/services"

	"github.com/gin-gonic/gin"
)

// パイプラインの終端状態
const (
	StateNoData         = "no_data"
	StateTrainingFailed = "training_failed"
	StateForecastFailed = "forecast_failed"
	StateSuccess        = "success"
)

// 各失敗状態に対応するユーザー向けメッセージ
const (
	msgNoData         = "No data found for this product or no data between 2015-2024."
	msgTrainingFailed = "Failed to train ARIMA model."
	msgForecastFailed = "Failed to generate forecast."
)

// ForecastHandler 需要予測パイプラインをフォームとJSON APIに公開するハンドラー
type ForecastHandler struct {
	datasetService  *services.DatasetService
	forecastService *services.ForecastService
	chartService    *services.ChartService
}

// NewForecastHandler 新しい需要予測ハンドラーを作成
func NewForecastHandler(datasetService *services.DatasetService) *ForecastHandler {
	return &ForecastHandler{
		datasetService:  datasetService,
		forecastService: services.NewForecastService(),
		chartService:    services.NewChartService(),
	}
}

// pipelineResult 1リクエスト分のパイプライン実行結果
type pipelineResult struct {
	State      string
	Message    string
	Historical []models.YearlyPoint
	Forecast   []models.ForecastPoint
}

// runPipeline 系列準備→学習→予測を実行し、最初に失敗したチェックの状態を返す
func (fh *ForecastHandler) runPipeline(productCode string) pipelineResult {
	series := fh.datasetService.PrepareYearlySeries(productCode)
	if len(series) == 0 {
		return pipelineResult{State: StateNoData, Message: msgNoData}
	}

	model, err := fh.forecastService.Train(series)
	if err != nil {
		log.Printf("Training failed for product %s: %v", productCode, err)
		return pipelineResult{State: StateTrainingFailed, Message: msgTrainingFailed}
	}

	forecast, err := fh.forecastService.Forecast(model, series)
	if err != nil {
		log.Printf("Forecast failed for product %s: %v", productCode, err)
		return pipelineResult{State: StateForecastFailed, Message: msgForecastFailed}
	}

	return pipelineResult{
		State:      StateSuccess,
		Historical: series,
		Forecast:   services.FilterDisplayYears(forecast),
	}
}

// ShowForm 製品選択フォームを表示する
func (fh *ForecastHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Products":    fh.datasetService.ProductCodes(),
		"ProductCode": "",
	})
}

// Predict フォーム送信を処理して予測結果のページを表示する。
// 失敗時はエラーメッセージのみを表示し、部分的な結果は出さない。
func (fh *ForecastHandler) Predict(c *gin.Context) {
	productCode := c.PostForm("product_code")

	result := fh.runPipeline(productCode)
	if result.State != StateSuccess {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Products":    fh.datasetService.ProductCodes(),
			"ProductCode": productCode,
			"Error":       result.Message,
		})
		return
	}

	historicalPlot, err := fh.chartService.HistoricalChart(result.Historical, productCode)
	if err != nil {
		log.Printf("Historical chart rendering failed for product %s: %v", productCode, err)
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Products":    fh.datasetService.ProductCodes(),
			"ProductCode": productCode,
			"Error":       "Failed to render charts.",
		})
		return
	}

	forecastPlot, err := fh.chartService.ForecastChart(result.Forecast, productCode)
	if err != nil {
		log.Printf("Forecast chart rendering failed for product %s: %v", productCode, err)
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Products":    fh.datasetService.ProductCodes(),
			"ProductCode": productCode,
			"Error":       "Failed to render charts.",
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Products":       fh.datasetService.ProductCodes(),
		"ProductCode":    productCode,
		"Forecast":       result.Forecast,
		"HistoricalPlot": historicalPlot,
		"ForecastPlot":   forecastPlot,
	})
}

// GetProducts 製品コードの一覧を返す
func (fh *ForecastHandler) GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    fh.datasetService.ProductCodes(),
	})
}

// PredictJSON JSON APIとして需要予測を実行する
func (fh *ForecastHandler) PredictJSON(c *gin.Context) {
	var request models.ForecastRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "failed to parse request: " + err.Error(),
		})
		return
	}

	result := fh.runPipeline(request.ProductCode)
	switch result.State {
	case StateNoData:
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"state":   result.State,
			"error":   result.Message,
		})
	case StateTrainingFailed, StateForecastFailed:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"state":   result.State,
			"error":   result.Message,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"state":   result.State,
			"data": models.ForecastResponse{
				ProductCode: request.ProductCode,
				Historical:  result.Historical,
				Forecast:    result.Forecast,
			},
		})
	}
}
