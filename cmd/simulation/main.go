package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tradefolio/journal-api/internal/analytics"
	"github.com/tradefolio/journal-api/internal/auth"
	"github.com/tradefolio/journal-api/internal/config"
	"github.com/tradefolio/journal-api/internal/database"
	"github.com/tradefolio/journal-api/internal/importer"
	"github.com/tradefolio/journal-api/internal/matching"
	"github.com/tradefolio/journal-api/pkg/middleware"
)

const (
	minRows       = 40
	maxRows       = 200
	serverAddress = "http://localhost:8080"
	jobPollLimit  = 30
)

var symbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"}

// headerSets are broker-style column name variants; one set is picked per
// run so the schema detector gets exercised against different vocabularies.
var headerSets = [][]string{
	{"Symbol", "Side", "Quantity", "Price", "Amount", "Trade Date"},
	{"Ticker", "Buy/Sell", "Qty", "Trade Price", "Net Amount", "Date"},
	{"Scrip", "Type", "Shares", "Rate", "Value", "Trade Datetime"},
}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median and 95th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p95 = rs.durations[p95idx]

	return
}

// simulationClient handles HTTP communication with the journal API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API and prepares performance tracking
func newSimulationClient() (*simulationClient, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":      {name: "Authentication"},
			"upload":    {name: "Upload File"},
			"commit":    {name: "Commit Mapping"},
			"status":    {name: "Upload Status"},
			"trades":    {name: "List Trades"},
			"positions": {name: "List Positions"},
			"summary":   {name: "Analytics Summary"},
			"symbols":   {name: "Symbol Analytics"},
		},
	}

	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    auth.TestAPIKey,
		"api_secret": auth.TestAPISecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON performs an authenticated request and decodes the data envelope
// into out when it is non-nil
func (sc *simulationClient) doJSON(statKey, method, path string, body []byte, out interface{}) error {
	start := time.Now()
	stat := sc.stats[statKey]
	defer func() {
		stat.addDuration(time.Since(start))
	}()

	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, reader)
	if err != nil {
		stat.failures++
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sc.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		stat.failures++
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		stat.failures++
		return fmt.Errorf("%s %s failed with status: %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	return json.NewDecoder(resp.Body).Decode(&envelope)
}

// uploadFile posts the generated CSV and returns the upload ID plus the
// suggested column mapping from the schema detector
func (sc *simulationClient) uploadFile(csvData []byte) (string, importer.ColumnMapping, error) {
	start := time.Now()
	stat := sc.stats["upload"]
	defer func() {
		stat.addDuration(time.Since(start))
	}()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "simulated-trades.csv")
	if err != nil {
		return "", nil, err
	}
	if _, err := part.Write(csvData); err != nil {
		return "", nil, err
	}
	if err := writer.Close(); err != nil {
		return "", nil, err
	}

	req, err := http.NewRequest("POST", sc.baseURL+"/api/v1/uploads", &buf)
	if err != nil {
		stat.failures++
		return "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+sc.authToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := sc.client.Do(req)
	if err != nil {
		stat.failures++
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		stat.failures++
		return "", nil, fmt.Errorf("upload failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			UploadID string `json:"upload_id"`
			Schema   struct {
				SuggestedMapping importer.ColumnMapping `json:"suggested_mapping"`
				ConfidenceScore  float64                `json:"confidence_score"`
			} `json:"schema"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", nil, err
	}

	log.Info().
		Str("upload_id", result.Data.UploadID).
		Float64("confidence", result.Data.Schema.ConfidenceScore).
		Msg("Schema detected")

	return result.Data.UploadID, result.Data.Schema.SuggestedMapping, nil
}

// commitUpload confirms the suggested mapping and returns the job status
func (sc *simulationClient) commitUpload(uploadID string, mapping importer.ColumnMapping) error {
	body, err := json.Marshal(map[string]interface{}{"mapping": mapping})
	if err != nil {
		return err
	}
	return sc.doJSON("commit", "POST", fmt.Sprintf("/api/v1/uploads/%s/commit", uploadID), body, nil)
}

// waitForJob polls the upload until its import job completes
func (sc *simulationClient) waitForJob(uploadID string) error {
	for i := 0; i < jobPollLimit; i++ {
		var status struct {
			Job *struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"job"`
		}
		if err := sc.doJSON("status", "GET", "/api/v1/uploads/"+uploadID, nil, &status); err != nil {
			return err
		}

		if status.Job != nil {
			switch status.Job.Status {
			case importer.JobStatusCompleted:
				return nil
			case importer.JobStatusFailed:
				return fmt.Errorf("import job failed: %s", status.Job.Error)
			}
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("import job did not complete in time")
}

// generateCSV builds a broker-style CSV with randomized headers and trades
func generateCSV(header []string) []byte {
	numRows := rand.Intn(maxRows-minRows+1) + minRows
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	var sb strings.Builder
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n")

	for i := 0; i < numRows; i++ {
		symbol := symbols[rand.Intn(len(symbols))]
		side := "BUY"
		// Bias toward buys early on so sells usually find a lot to match
		if rand.Float64() < 0.45 {
			side = "SELL"
		}
		quantity := float64(rand.Intn(90) + 10)
		price := float64(rand.Intn(400)+50) + rand.Float64()
		amount := quantity * price
		timestamp := start.Add(time.Duration(i) * 37 * time.Minute)

		sb.WriteString(fmt.Sprintf("%s,%s,%.0f,%.2f,%.2f,%s\n",
			symbol, side, quantity, price, amount, timestamp.Format("2006-01-02 15:04:05")))
	}

	return []byte(sb.String())
}

// printPerformanceStats renders the per-route latency table
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("API Performance Statistics")
	fmt.Println(strings.Repeat("=", 80))

	keys := make([]string, 0, len(sc.stats))
	for key := range sc.stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		stat := sc.stats[key]
		if stat.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95 := stat.calculate()
		fmt.Printf("%-18s calls=%-4d failures=%-3d min=%-10s max=%-10s mean=%-10s median=%-10s p95=%s\n",
			stat.name, stat.totalCalls, stat.failures, min, max, mean, median, p95)
	}

	fmt.Println(strings.Repeat("=", 80))
}

// startServer initializes and starts the journal API server in-process
func startServer() error {
	cfg := config.Load()

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	authService := auth.NewService(cfg.JWTSecret, db)
	if err := authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret); err != nil {
		return fmt.Errorf("failed to register test credentials: %w", err)
	}

	importerService := importer.NewService(db)
	matchingService := matching.NewService(db)
	analyticsService := analytics.NewService(db)

	processor := importer.NewProcessor(importerService.GetDB(), time.Second)
	go processor.Start(context.Background())

	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	importerHandlers := importer.NewGinHandlers(importerService)
	matchingHandlers := matching.NewGinHandlers(matchingService)
	analyticsHandlers := analytics.NewGinHandlers(analyticsService)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		uploads := v1.Group("/uploads")
		uploads.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			uploads.POST("", importerHandlers.UploadFileHandler())
			uploads.POST("/:upload_id/commit", importerHandlers.CommitUploadHandler())
			uploads.GET("/:upload_id", importerHandlers.GetUploadHandler())
		}

		trades := v1.Group("/trades")
		trades.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			trades.GET("", matchingHandlers.ListTradesHandler())
		}

		positions := v1.Group("/positions")
		positions.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			positions.GET("", matchingHandlers.ListPositionsHandler())
		}

		analyticsGroup := v1.Group("/analytics")
		analyticsGroup.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			analyticsGroup.GET("/summary", analyticsHandlers.SummaryHandler())
			analyticsGroup.GET("/symbols", analyticsHandlers.SymbolsHandler())
		}
	}

	return router.Run(":8080")
}

func main() {
	simStart := time.Now()

	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Give the server a moment to come up
	time.Sleep(2 * time.Second)

	simClient, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create simulation client")
	}

	header := headerSets[rand.Intn(len(headerSets))]
	csvData := generateCSV(header)
	log.Info().Strs("header", header).Int("bytes", len(csvData)).Msg("Generated broker-style CSV")

	uploadID, mapping, err := simClient.uploadFile(csvData)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	if err := simClient.commitUpload(uploadID, mapping); err != nil {
		log.Fatal().Err(err).Msg("Commit failed")
	}

	if err := simClient.waitForJob(uploadID); err != nil {
		log.Fatal().Err(err).Msg("Import job failed")
	}

	var trades []json.RawMessage
	if err := simClient.doJSON("trades", "GET", "/api/v1/trades", nil, &trades); err != nil {
		log.Fatal().Err(err).Msg("Failed to list trades")
	}

	var positions []json.RawMessage
	if err := simClient.doJSON("positions", "GET", "/api/v1/positions", nil, &positions); err != nil {
		log.Fatal().Err(err).Msg("Failed to list positions")
	}

	var summary analytics.PerformanceReport
	if err := simClient.doJSON("summary", "GET", "/api/v1/analytics/summary", nil, &summary); err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch summary")
	}

	var symbolReports []analytics.SymbolReport
	if err := simClient.doJSON("symbols", "GET", "/api/v1/analytics/symbols", nil, &symbolReports); err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch symbol analytics")
	}

	log.Info().
		Int("matched_trades", len(trades)).
		Int("open_positions", len(positions)).
		Int("symbols", len(symbolReports)).
		Float64("net_profit", summary.NetProfit).
		Float64("win_rate", summary.WinRate).
		Float64("profit_factor", summary.ProfitFactor).
		Float64("max_drawdown", summary.MaxDrawdown).
		Dur("duration", time.Since(simStart)).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}
