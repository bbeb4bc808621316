package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"QuantDesk/internal/domain/models"
	"QuantDesk/pkg/logger"
)

// StreamConfig holds the WebSocket connection parameters.
type StreamConfig struct {
	URL            string
	APIKey         string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Stream keeps a live Finnhub trade subscription and caches the last trade
// per symbol. It satisfies the same quote interface as the REST client, so
// the refresher can read prices without an HTTP round trip per tick.
type Stream struct {
	cfg StreamConfig
	log *logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	symbols map[string]struct{}
	latest  map[string]models.Quote
}

// NewStream builds a stream-backed quote source. Run must be started before
// LatestQuote returns data.
func NewStream(cfg StreamConfig, symbols []string, log *logger.Logger) *Stream {
	s := &Stream{
		cfg:     cfg,
		log:     log,
		symbols: make(map[string]struct{}, len(symbols)),
		latest:  make(map[string]models.Quote),
	}
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
	return s
}

// Name identifies the provider in logs and errors.
func (s *Stream) Name() string { return sourceName + "-stream" }

// LatestQuote returns the last streamed trade for ticker.
func (s *Stream) LatestQuote(ctx context.Context, ticker string) (models.Quote, error) {
	s.mu.Lock()
	q, ok := s.latest[ticker]
	s.mu.Unlock()
	if !ok {
		return models.Quote{}, models.NewProviderError(s.Name(), "latest quote",
			fmt.Errorf("no trade seen yet for %s", ticker))
	}
	return q, nil
}

// Subscribe adds a symbol to the live subscription.
func (s *Stream) Subscribe(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[symbol] = struct{}{}
	if s.conn == nil {
		return nil
	}
	return s.writeControl("subscribe", symbol)
}

// Unsubscribe removes a symbol and drops its cached quote.
func (s *Stream) Unsubscribe(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.symbols, symbol)
	delete(s.latest, symbol)
	if s.conn == nil {
		return nil
	}
	return s.writeControl("unsubscribe", symbol)
}

// Run connects, subscribes and consumes trades until ctx is cancelled,
// reconnecting after ReconnectDelay on any read failure.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connect(ctx); err != nil {
			s.log.Error("stream connect failed", logger.Error(err))
		} else {
			s.readLoop(ctx)
		}
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// Close shuts the connection down.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *Stream) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.cfg.URL, s.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	for sym := range s.symbols {
		if err := s.writeControl("subscribe", sym); err != nil {
			s.mu.Unlock()
			_ = conn.Close()
			return err
		}
	}
	s.mu.Unlock()

	s.log.Info("trade stream connected", logger.String("url", s.cfg.URL))
	return nil
}

type streamTrade struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
	Unix   int64   `json:"t"` // ms
}

type streamMessage struct {
	Type string        `json:"type"`
	Data []streamTrade `json:"data"`
}

func (s *Stream) readLoop(ctx context.Context) {
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pingLoop(pingCtx)

	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("trade stream read failed", logger.Error(err))
			}
			s.Close()
			return
		}

		var m streamMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			continue
		}
		s.mu.Lock()
		for _, tr := range m.Data {
			if _, tracked := s.symbols[tr.Symbol]; !tracked {
				continue
			}
			s.latest[tr.Symbol] = models.Quote{
				Ticker: tr.Symbol,
				Time:   time.UnixMilli(tr.Unix).Local(),
				Price:  tr.Price,
			}
		}
		s.mu.Unlock()
	}
}

func (s *Stream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn != nil {
				_ = s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.mu.Unlock()
		}
	}
}

// writeControl sends a subscribe or unsubscribe frame. Callers hold s.mu.
func (s *Stream) writeControl(typ, symbol string) error {
	msg := map[string]string{"type": typ, "symbol": symbol}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%s %s: %w", typ, symbol, err)
	}
	return nil
}
