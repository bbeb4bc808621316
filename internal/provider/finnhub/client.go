// Package finnhub resolves latest traded prices, either from the Finnhub
// REST quote endpoint or from its trade WebSocket stream.
package finnhub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"QuantDesk/internal/domain/models"
	qhttp "QuantDesk/pkg/http"
	"QuantDesk/pkg/logger"
)

const sourceName = "finnhub"

// Client queries /quote for single-symbol snapshots.
type Client struct {
	baseURL string
	apiKey  string
	http    *qhttp.Client
	log     *logger.Logger
}

// NewClient builds a REST quote client.
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

type quoteResponse struct {
	Current   float64 `json:"c"`
	Timestamp int64   `json:"t"` // unix seconds, zero when unknown
}

// LatestQuote returns the most recent traded price for ticker. A zero
// timestamp in the response means Finnhub has no quote for the symbol.
func (c *Client) LatestQuote(ctx context.Context, ticker string) (models.Quote, error) {
	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &qhttp.RequestOptions{
		Method: qhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string]string{
			"symbol": ticker,
			"token":  c.apiKey,
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, models.NewProviderError(sourceName, "fetch quote", err)
	}
	if resp.Timestamp == 0 {
		return models.Quote{}, models.NewProviderError(sourceName, "fetch quote",
			fmt.Errorf("no quote for %s", ticker))
	}

	return models.Quote{
		Ticker: ticker,
		Time:   time.Unix(resp.Timestamp, 0).Local(),
		Price:  resp.Current,
	}, nil
}
