// Package alphavantage fetches intraday price history from the Alpha Vantage
// HTTP API in CSV form.
package alphavantage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"QuantDesk/internal/domain/models"
	qhttp "QuantDesk/pkg/http"
	"QuantDesk/pkg/logger"
)

const (
	sourceName = "alphavantage"
	timeLayout = "2006-01-02 15:04:05"
)

// Client talks to the Alpha Vantage TIME_SERIES_INTRADAY endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *qhttp.Client
	log     *logger.Logger
}

// NewClient builds an intraday history client.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    qhttp.NewClient(qhttp.WithTimeout(timeout)),
		log:     log,
	}
}

// Name identifies the provider in logs and errors.
func (c *Client) Name() string { return sourceName }

// FetchHistorical pulls the full intraday series for ticker at the given
// sampling interval. An empty result means the symbol is unknown and maps to
// models.ErrInvalidTicker.
func (c *Client) FetchHistorical(ctx context.Context, ticker string, samplingMinutes int) (models.Series, error) {
	var raw []byte
	err := c.http.SendAndParse(ctx, &qhttp.RequestOptions{
		Method: qhttp.MethodGet,
		URL:    c.baseURL + "/query",
		QueryParams: map[string]string{
			"function":   "TIME_SERIES_INTRADAY",
			"symbol":     ticker,
			"interval":   fmt.Sprintf("%dmin", samplingMinutes),
			"outputsize": "full",
			"datatype":   "csv",
			"apikey":     c.apiKey,
		},
	}, &raw)
	if err != nil {
		return models.Series{}, models.NewProviderError(sourceName, "fetch intraday", err)
	}

	points, err := parseIntradayCSV(raw)
	if err != nil {
		return models.Series{}, models.NewProviderError(sourceName, "parse intraday", err)
	}
	if len(points) == 0 {
		return models.Series{}, fmt.Errorf("%s: %s: %w", sourceName, ticker, models.ErrInvalidTicker)
	}

	c.log.Debug("fetched intraday history",
		logger.String("ticker", ticker),
		logger.Int("samples", len(points)))
	return models.Series{Ticker: ticker, Points: points}, nil
}

// parseIntradayCSV decodes the CSV payload. Rows arrive newest first; the
// returned points are ascending by time. The close column is used as the
// price.
func parseIntradayCSV(raw []byte) ([]models.PricePoint, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	timeIdx, closeIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "timestamp", "time":
			timeIdx = i
		case "close":
			closeIdx = i
		}
	}
	if timeIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	var points []models.PricePoint
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) <= timeIdx || len(rec) <= closeIdx {
			continue
		}
		// upstream timestamps are zone-naive; read them in the server's
		// zone so as-of queries compare against the same clock
		t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(rec[timeIdx]), time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", rec[timeIdx], err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[closeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse close %q: %w", rec[closeIdx], err)
		}
		points = append(points, models.PricePoint{Time: t, Price: price})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}
