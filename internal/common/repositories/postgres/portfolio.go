package postgres

import (
	"context"
	"errors"

	"github.com/brunoksato/finbot/internal/common/domain"
	"github.com/brunoksato/finbot/pkg/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type portfolioRepository struct {
	psql *pgxpool.Pool
}

func NewPortfolioRepository(pool *pgxpool.Pool) domain.PortfolioRepository {
	return &portfolioRepository{
		psql: pool,
	}
}

func (pr *portfolioRepository) GetPortfolio(ctx context.Context, clientID int64) (*domain.Portfolio, error) {
	query := `SELECT client_id FROM finbot.portfolios WHERE client_id = $1`
	var id int64
	if err := pr.psql.QueryRow(ctx, query, clientID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoPortfolio
		}

		return nil, errs.NewStack(err)
	}

	query = `SELECT
			client_id,
			ticker,
			quantity,
			avg_price,
			created_at,
			updated_at
		FROM finbot.positions
		WHERE client_id = $1
		ORDER BY ticker ASC`
	rows, err := pr.psql.Query(ctx, query, clientID)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	portfolio := domain.NewPortfolio(clientID)
	for rows.Next() {
		position := &Position{}
		if err := rows.Scan(
			&position.ClientID,
			&position.Ticker,
			&position.Quantity,
			&position.AvgPrice,
			&position.CreatedAt,
			&position.UpdatedAt,
		); err != nil {
			return nil, errs.NewStack(err)
		}

		portfolio.Positions[position.Ticker] = position.CreateDomain()
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewStack(err)
	}

	return portfolio, nil
}

// SavePortfolio upserts the given positions and deletes the ones no longer
// held, in a single transaction. The portfolio row itself survives even when
// every position was sold.
func (pr *portfolioRepository) SavePortfolio(ctx context.Context, portfolio *domain.Portfolio) error {
	tx, err := pr.psql.Begin(ctx)
	if err != nil {
		return errs.NewStack(err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO finbot.portfolios (client_id)
		VALUES ($1)
		ON CONFLICT (client_id) DO NOTHING`
	if _, err := tx.Exec(ctx, query, portfolio.ClientID); err != nil {
		return errs.NewStack(err)
	}

	tickers := make([]string, 0, len(portfolio.Positions))
	for ticker := range portfolio.Positions {
		tickers = append(tickers, ticker)
	}

	query = `DELETE FROM finbot.positions
		WHERE client_id = $1 AND NOT (ticker = ANY($2))`
	if _, err := tx.Exec(ctx, query, portfolio.ClientID, tickers); err != nil {
		return errs.NewStack(err)
	}

	query = `INSERT INTO finbot.positions (client_id, ticker, quantity, avg_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, ticker) DO UPDATE
		SET quantity = EXCLUDED.quantity,
			avg_price = EXCLUDED.avg_price,
			updated_at = now()`
	for _, position := range portfolio.Positions {
		if _, err := tx.Exec(ctx, query, portfolio.ClientID, position.Ticker, position.Quantity, position.AvgPrice); err != nil {
			return errs.NewStack(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.NewStack(err)
	}

	return nil
}
