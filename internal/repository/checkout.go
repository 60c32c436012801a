package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/doormarket/internal/model"
)

// CommitCheckout в одной транзакции создаёт заказы и очищает корзину.
//
// lines — позиции корзины, проверенные вызывающим. Если к моменту фиксации состав корзины
// или версия любой позиции отличаются, транзакция откатывается с model.ErrConcurrentModification.
func (r *PostgresRepository) CommitCheckout(ctx context.Context, basketID int64, lines []model.BasketLine, orders []model.Order) ([]model.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE на строке корзины конфликтует с FOR KEY SHARE, который берёт вставка
	// новой позиции по внешнему ключу, поэтому добавления ждут окончания оформления.
	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM baskets WHERE id = $1 FOR UPDATE`, basketID).Scan(&locked)
	if err != nil {
		return nil, r.checkoutErr("lock basket", err)
	}

	current, err := r.basketLines(ctx, tx, basketID, true)
	if err != nil {
		return nil, r.checkoutErr("lock basket lines", err)
	}
	if !sameLines(lines, current) {
		return nil, model.ErrConcurrentModification
	}

	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(
			`INSERT INTO orders (user_id, item_kind, item_id, item_name, unit_price, quantity, order_type,
				customer_name, customer_email, customer_phone,
				address, preferred_delivery_time, comment, installation_notes, delivery_notes, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 RETURNING id, created_at`,
			o.UserID, string(o.ItemKind), o.ItemID, o.ItemName, o.UnitPrice.String(), o.Quantity, string(o.OrderType),
			o.CustomerName, o.CustomerEmail, o.CustomerPhone,
			o.Delivery.Address, o.Delivery.PreferredDeliveryTime, o.Delivery.Comment,
			o.Delivery.InstallationNotes, o.Delivery.DeliveryNotes, string(o.Status),
		)
	}

	created := make([]model.Order, len(orders))
	copy(created, orders)

	br := tx.SendBatch(ctx, batch)
	for i := range created {
		if err := br.QueryRow().Scan(&created[i].ID, &created[i].CreatedAt); err != nil {
			_ = br.Close()
			return nil, r.checkoutErr("insert order", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, r.checkoutErr("insert orders", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM basket_lines WHERE basket_id = $1`, basketID); err != nil {
		return nil, r.checkoutErr("clear basket", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, r.checkoutErr("commit tx", err)
	}

	return created, nil
}

func (r *PostgresRepository) checkoutErr(op string, err error) error {
	if isConflict(err) {
		return model.ErrConcurrentModification
	}
	return fmt.Errorf("%s: %w", op, err)
}

// sameLines сравнивает наборы позиций по идентификатору и версии.
func sameLines(observed, current []model.BasketLine) bool {
	if len(observed) != len(current) {
		return false
	}
	versions := make(map[int64]int64, len(current))
	for _, l := range current {
		versions[l.ID] = l.Version
	}
	for _, l := range observed {
		v, ok := versions[l.ID]
		if !ok || v != l.Version {
			return false
		}
	}
	return true
}
