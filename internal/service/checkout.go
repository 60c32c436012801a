package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/doormarket/internal/model"
)

// EmptyBasketSummary — итог оформления пустой корзины.
const EmptyBasketSummary = "basket is empty"

// CheckoutRequest содержит параметры оформления. Цена и данные покупателя в запрос не входят.
type CheckoutRequest struct {
	OrderType model.OrderType
	Delivery  model.Delivery
}

// CheckoutResult — результат оформления корзины.
type CheckoutResult struct {
	// Empty означает, что корзина была пуста и заказы не создавались.
	Empty   bool
	Orders  []model.Order
	Total   decimal.Decimal
	Summary string
}

// Checkout превращает корзину пользователя в заказы.
//
// Сначала все позиции проверяются по каталогу; если хотя бы один товар пропал,
// возвращается *model.ItemUnavailableError со всеми такими позициями, и корзина не меняется.
// Затем заказы создаются и корзина очищается в одной транзакции.
// Если корзина изменилась после чтения, возвращается model.ErrConcurrentModification.
func (s *Service) Checkout(ctx context.Context, user model.Identity, req CheckoutRequest) (*CheckoutResult, error) {
	if !req.OrderType.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidOrderType, req.OrderType)
	}

	b, err := s.GetOrCreateBasket(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if len(b.Lines) == 0 {
		return &CheckoutResult{
			Empty:   true,
			Total:   decimal.Zero,
			Summary: EmptyBasketSummary,
		}, nil
	}

	if err := s.validateLines(ctx, b.Lines); err != nil {
		var unavailable *model.ItemUnavailableError
		if errors.As(err, &unavailable) {
			s.logger.Warn("checkout rejected: items unavailable",
				zap.Int64("userID", user.ID),
				zap.Int64s("lineIDs", unavailable.LineIDs),
			)
		}
		return nil, err
	}

	orders := make([]model.Order, 0, len(b.Lines))
	for _, l := range b.Lines {
		orders = append(orders, buildOrder(user, l, req))
	}

	created, err := s.repo.CommitCheckout(ctx, b.ID, b.Lines, orders)
	if err != nil {
		return nil, storageErr("commit checkout", err)
	}

	total := decimal.Zero
	for _, o := range created {
		total = total.Add(o.Total())
	}

	s.logger.Info("checkout completed",
		zap.Int64("userID", user.ID),
		zap.Int("orders", len(created)),
		zap.String("total", total.StringFixed(2)),
	)

	return &CheckoutResult{
		Orders:  created,
		Total:   total,
		Summary: fmt.Sprintf("%d order(s) created, total %s", len(created), total.StringFixed(2)),
	}, nil
}

// validateLines проверяет, что все товары корзины есть в каталоге.
func (s *Service) validateLines(ctx context.Context, lines []model.BasketLine) error {
	var missing []int64
	for _, l := range lines {
		_, err := s.checkoutItems.Resolve(ctx, l.ItemKind, l.ItemID)
		if err == nil {
			continue
		}
		if errors.Is(err, model.ErrItemNotFound) {
			missing = append(missing, l.ID)
			continue
		}
		return fmt.Errorf("resolve %s %d: %w", l.ItemKind, l.ItemID, err)
	}

	if len(missing) > 0 {
		return &model.ItemUnavailableError{LineIDs: missing}
	}
	return nil
}

// buildOrder собирает заказ из зафиксированных в позиции данных и данных аутентифицированного пользователя.
func buildOrder(user model.Identity, l model.BasketLine, req CheckoutRequest) model.Order {
	return model.Order{
		UserID:        user.ID,
		ItemKind:      l.ItemKind,
		ItemID:        l.ItemID,
		ItemName:      l.Name,
		UnitPrice:     l.UnitPrice,
		Quantity:      l.Quantity,
		OrderType:     req.OrderType,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CustomerPhone: user.Phone,
		Delivery:      req.Delivery,
		Status:        model.OrderStatusPending,
	}
}
