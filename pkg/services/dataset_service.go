package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"demand-forecast-web/pkg/models"

	"github.com/xuri/excelize/v2"
)

// 年次集計ウィンドウ（過去データは2015〜2024年に制限する）
const (
	HistoryStartYear = 2015
	HistoryEndYear   = 2024
)

// 日付列で受け付けるフォーマット（先頭がデータセットの標準形式）
var dateLayouts = []string{
	"2006/1/2",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
}

// DatasetService 需要実績データセットを起動時に読み込み、読み取り専用で保持する
type DatasetService struct {
	records  []models.DemandRecord
	products []string
}

// NewDatasetService CSVまたはXLSXファイルからデータセットを読み込む
func NewDatasetService(path string) (*DatasetService, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	return NewDatasetServiceFromRows(rows)
}

// NewDatasetServiceFromRows ヘッダー付きの行データからデータセットを構築する
func NewDatasetServiceFromRows(rows [][]string) (*DatasetService, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset needs a header row and at least one data row")
	}

	header := rows[0]
	productIdx := findIndex(header, "Product_Code", "product_code", "product", "product_id")
	dateIdx := findIndex(header, "Date", "date")
	quantityIdx := findIndex(header, "Order_Demand", "order_demand", "quantity", "demand")

	var missing []string
	if productIdx == -1 {
		missing = append(missing, "product code")
	}
	if dateIdx == -1 {
		missing = append(missing, "date")
	}
	if quantityIdx == -1 {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}

	var records []models.DemandRecord
	seen := make(map[string]bool)

	for _, row := range rows[1:] {
		if productIdx >= len(row) || dateIdx >= len(row) || quantityIdx >= len(row) {
			continue
		}

		// 数値に変換できない需要量の行は破棄する
		quantity, err := strconv.Atoi(strings.TrimSpace(row[quantityIdx]))
		if err != nil {
			continue
		}

		code := strings.TrimSpace(row[productIdx])
		if code == "" {
			continue
		}

		records = append(records, models.DemandRecord{
			ProductCode: code,
			Date:        strings.TrimSpace(row[dateIdx]),
			Quantity:    quantity,
		})
		seen[code] = true
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("dataset contains no usable rows")
	}

	products := make([]string, 0, len(seen))
	for code := range seen {
		products = append(products, code)
	}
	sort.Strings(products)

	return &DatasetService{records: records, products: products}, nil
}

// ProductCodes 登録されている製品コードの一覧をソート済みで返す
func (ds *DatasetService) ProductCodes() []string {
	return append([]string(nil), ds.products...)
}

// RecordCount 読み込んだレコード数を返す
func (ds *DatasetService) RecordCount() int {
	return len(ds.records)
}

// PrepareYearlySeries 指定した製品コードの年次需要系列を作成する。
// 日付を解析できない行は除外し、年ごとに需要量を合計した上で
// 2015〜2024年のウィンドウに制限する。結果は年の昇順で、空になり得る。
func (ds *DatasetService) PrepareYearlySeries(productCode string) []models.YearlyPoint {
	totals := make(map[int]float64)

	for _, r := range ds.records {
		if r.ProductCode != productCode {
			continue
		}

		date, ok := parseDate(r.Date)
		if !ok {
			continue
		}

		totals[date.Year()] += float64(r.Quantity)
	}

	var series []models.YearlyPoint
	for year, total := range totals {
		if year < HistoryStartYear || year > HistoryEndYear {
			continue
		}
		series = append(series, models.YearlyPoint{Year: year, Total: total})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series
}

// readRows ファイル形式に応じて行データを読み込む
func readRows(path string) ([][]string, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset sheet: %w", err)
		}
		return rows, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return rows, nil
}

// parseDate 受け付けているフォーマットを順に試して日付を解析する
func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// findIndex ヘッダー行から候補名に一致する列のインデックスを探す
func findIndex(header []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), candidate) {
				return i
			}
		}
	}
	return -1
}
