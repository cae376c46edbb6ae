package indicators

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres-backed price store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new price repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Symbols returns every symbol with stored prices.
func (r *Repository) Symbols(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM prices
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// History returns up to limit daily bars for a symbol, oldest first.
func (r *Repository) History(ctx context.Context, symbol string, limit int) ([]Price, error) {
	query := `
		SELECT symbol, trade_date, open, high, low, close, volume
		FROM (
			SELECT symbol, trade_date, open, high, low, close, volume
			FROM prices
			WHERE symbol = $1
			ORDER BY trade_date DESC
			LIMIT $2
		) recent
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []Price
	for rows.Next() {
		var p Price
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// SaveBatch upserts daily bars. Re-collecting a date overwrites it.
func (r *Repository) SaveBatch(ctx context.Context, prices []Price) error {
	if len(prices) == 0 {
		return nil
	}

	query := `
		INSERT INTO prices (symbol, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for _, p := range prices {
		if _, err := r.pool.Exec(ctx, query,
			p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume,
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", p.Symbol, p.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}
