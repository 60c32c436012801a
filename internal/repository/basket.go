package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/doormarket/internal/model"
)

// GetOrCreateBasket возвращает корзину пользователя с позициями, создавая пустую при первом обращении.
func (r *PostgresRepository) GetOrCreateBasket(ctx context.Context, userID int64) (*model.Basket, error) {
	var b *model.Basket
	err := r.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO baskets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("insert basket: %w", err)
		}

		var basket model.Basket
		err = r.pool.QueryRow(ctx,
			`SELECT id, user_id, created_at FROM baskets WHERE user_id = $1`,
			userID,
		).Scan(&basket.ID, &basket.UserID, &basket.CreatedAt)
		if err != nil {
			return fmt.Errorf("select basket: %w", err)
		}

		basket.Lines, err = r.basketLines(ctx, r.pool, basket.ID, false)
		if err != nil {
			return err
		}

		b = &basket
		return nil
	})
	return b, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) basketLines(ctx context.Context, q querier, basketID int64, forUpdate bool) ([]model.BasketLine, error) {
	query := `SELECT id, basket_id, item_kind, item_id, quantity, unit_price::text, name, image_url, version
		 FROM basket_lines
		 WHERE basket_id = $1
		 ORDER BY id`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, basketID)
	if err != nil {
		return nil, fmt.Errorf("select basket lines: %w", err)
	}
	defer rows.Close()

	var lines []model.BasketLine
	for rows.Next() {
		var (
			l     model.BasketLine
			kind  string
			price string
		)
		if err := rows.Scan(&l.ID, &l.BasketID, &kind, &l.ItemID, &l.Quantity, &price, &l.Name, &l.ImageURL, &l.Version); err != nil {
			return nil, fmt.Errorf("scan basket line: %w", err)
		}
		l.ItemKind = model.ItemKind(kind)
		l.UnitPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse unit price of line %d: %w", l.ID, err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// AddBasketLine добавляет позицию в корзину. Если позиция с тем же товаром уже есть,
// её количество увеличивается, а зафиксированные цена, название и изображение сохраняются.
func (r *PostgresRepository) AddBasketLine(ctx context.Context, basketID int64, line model.BasketLine) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO basket_lines (basket_id, item_kind, item_id, quantity, unit_price, name, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (basket_id, item_kind, item_id)
		 DO UPDATE SET quantity = basket_lines.quantity + EXCLUDED.quantity,
		               version = basket_lines.version + 1
		 RETURNING id`,
		basketID, string(line.ItemKind), line.ItemID, line.Quantity, line.UnitPrice.String(), line.Name, line.ImageURL,
	).Scan(&id)
	if err != nil {
		if isConflict(err) {
			return 0, model.ErrConcurrentModification
		}
		if isOutOfRange(err) {
			return 0, fmt.Errorf("%w: merged quantity out of range", model.ErrInvalidQuantity)
		}
		return 0, fmt.Errorf("upsert basket line: %w", err)
	}
	return id, nil
}

// UpdateBasketLineQuantity меняет количество позиции при условии, что её версия равна version.
func (r *PostgresRepository) UpdateBasketLineQuantity(ctx context.Context, basketID, lineID int64, quantity int, version int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE basket_lines
		 SET quantity = $4, version = version + 1
		 WHERE id = $1 AND basket_id = $2 AND version = $3`,
		lineID, basketID, version, quantity,
	)
	if err != nil {
		if isConflict(err) {
			return model.ErrConcurrentModification
		}
		if isOutOfRange(err) {
			return fmt.Errorf("%w: %d", model.ErrInvalidQuantity, quantity)
		}
		return fmt.Errorf("update basket line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.lineMissOrConflict(ctx, basketID, lineID)
	}
	return nil
}

// DeleteBasketLine удаляет позицию при условии, что её версия равна version.
func (r *PostgresRepository) DeleteBasketLine(ctx context.Context, basketID, lineID int64, version int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM basket_lines WHERE id = $1 AND basket_id = $2 AND version = $3`,
		lineID, basketID, version,
	)
	if err != nil {
		if isConflict(err) {
			return model.ErrConcurrentModification
		}
		return fmt.Errorf("delete basket line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.lineMissOrConflict(ctx, basketID, lineID)
	}
	return nil
}

// lineMissOrConflict различает отсутствие позиции в корзине и устаревшую версию.
func (r *PostgresRepository) lineMissOrConflict(ctx context.Context, basketID, lineID int64) error {
	var version int64
	err := r.pool.QueryRow(ctx,
		`SELECT version FROM basket_lines WHERE id = $1 AND basket_id = $2`,
		lineID, basketID,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrLineNotFound
		}
		return fmt.Errorf("select basket line: %w", err)
	}
	return model.ErrConcurrentModification
}

// ClearBasket удаляет все позиции корзины одним запросом.
func (r *PostgresRepository) ClearBasket(ctx context.Context, basketID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM basket_lines WHERE basket_id = $1`, basketID)
	if err != nil {
		return fmt.Errorf("clear basket: %w", err)
	}
	return nil
}
