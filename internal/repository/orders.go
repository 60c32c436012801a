package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/doormarket/internal/model"
)

const selectOrder = `SELECT id, user_id, item_kind, item_id, item_name, unit_price::text, quantity, order_type,
		customer_name, customer_email, customer_phone,
		address, preferred_delivery_time, comment, installation_notes, delivery_notes,
		status, created_at
	FROM orders`

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o         model.Order
		kind      string
		price     string
		orderType string
		status    string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &kind, &o.ItemID, &o.ItemName, &price, &o.Quantity, &orderType,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Delivery.Address, &o.Delivery.PreferredDeliveryTime, &o.Delivery.Comment,
		&o.Delivery.InstallationNotes, &o.Delivery.DeliveryNotes,
		&status, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	o.ItemKind = model.ItemKind(kind)
	o.OrderType = model.OrderType(orderType)
	o.Status = model.OrderStatus(status)
	o.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return o, fmt.Errorf("parse unit price of order %d: %w", o.ID, err)
	}
	return o, nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := r.withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, selectOrder+`
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("select orders: %w", err)
		}
		defer rows.Close()

		orders = orders[:0]
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return fmt.Errorf("scan order: %w", err)
			}
			orders = append(orders, o)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	return orders, err
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	var order *model.Order
	err := r.withRetry(ctx, func(ctx context.Context) error {
		o, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		order = &o
		return nil
	})
	return order, err
}

// UpdateOrderStatus переводит заказ из статуса from в статус to.
// Если статус заказа уже не равен from, возвращается model.ErrConcurrentModification.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		orderID, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("select order: %w", err)
	}
	if !exists {
		return model.ErrOrderNotFound
	}
	return model.ErrConcurrentModification
}
