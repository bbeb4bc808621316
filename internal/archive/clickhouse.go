package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"QuantDesk/internal/domain/models"
	"QuantDesk/internal/domain/repository"
)

// TickSchema creates the tick table when the clickhouse backend is enabled.
func TickSchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts DateTime64(3),
		symbol LowCardinality(String),
		price Float64,
		source LowCardinality(String)
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMMDD(ts)
	ORDER BY (symbol, ts)`, table)}
}

// ClickHouseStorage stores ticks in a MergeTree table.
type ClickHouseStorage struct {
	db     *sql.DB
	table  string
	schema []string
}

// NewClickHouseStorage creates tick storage over an open connection.
func NewClickHouseStorage(db *sql.DB, table string) repository.TickStorage {
	return &ClickHouseStorage{db: db, table: table, schema: TickSchema(table)}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	for _, stmt := range s.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init tick schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, t models.Tick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, source) VALUES (?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, t.Time, t.Symbol, t.Price, "quantdesk")
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, ticks []models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	values := make([]string, 0, len(ticks))
	args := make([]interface{}, 0, len(ticks)*4)
	for _, t := range ticks {
		if t.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, t.Time, t.Symbol, t.Price, "quantdesk")
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, source) VALUES %s",
		s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil
}
