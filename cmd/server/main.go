package main

import (
	"log"

	config "demand-forecast-web/configs"
	"demand-forecast-web/pkg/handlers"
	"demand-forecast-web/pkg/services"
	"demand-forecast-web/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()

	// データセットは起動時に一度だけ読み込む。失敗した場合はサーバーを起動しない。
	datasetService, err := services.NewDatasetService(cfg.DatasetPath)
	if err != nil {
		log.Fatalf("Failed to load demand dataset %q: %v", cfg.DatasetPath, err)
	}
	log.Printf("Loaded %d demand records for %d products from %s",
		datasetService.RecordCount(), len(datasetService.ProductCodes()), cfg.DatasetPath)

	// Ginルーターの初期化
	r := gin.Default()
	r.SetHTMLTemplate(web.Templates())
	r.Use(cors.Default())

	// ハンドラーの初期化
	forecastHandler := handlers.NewForecastHandler(datasetService)

	// ヘルスチェックエンドポイント
	r.GET("/health", handlers.HealthCheck)

	// フォームUI
	r.GET("/", forecastHandler.ShowForm)
	r.POST("/", forecastHandler.Predict)

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	{
		v1.GET("/products", forecastHandler.GetProducts)

		// 需要予測API
		demand := v1.Group("/demand")
		{
			demand.POST("/forecast", forecastHandler.PredictJSON)
		}
	}

	log.Println("Starting demand forecast server on :" + cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
