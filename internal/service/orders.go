package service

import (
	"context"

	"github.com/mmeshcher/doormarket/internal/model"
)

// GetOrdersByUser возвращает список заказов пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.repo.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("get orders", err)
	}
	return orders, nil
}

// GetOrder возвращает заказ пользователя. Чужие заказы не видны.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storageErr("get order", err)
	}
	if o.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

// CancelOrder отменяет заказ пользователя. Отменить можно только заказ в статусе PENDING.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	o, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, model.OrderStatusCancelled)
}

// AdvanceOrderStatus меняет статус любого заказа. Доступно только администратору.
func (s *Service) AdvanceOrderStatus(ctx context.Context, actor model.Identity, orderID int64, to model.OrderStatus) (*model.Order, error) {
	if actor.Role != model.RoleAdmin {
		return nil, model.ErrForbidden
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storageErr("get order", err)
	}
	return s.transition(ctx, o, to)
}

func (s *Service) transition(ctx context.Context, o *model.Order, to model.OrderStatus) (*model.Order, error) {
	if !o.Status.CanTransition(to) {
		return nil, model.ErrInvalidTransition
	}

	if err := s.repo.UpdateOrderStatus(ctx, o.ID, o.Status, to); err != nil {
		return nil, storageErr("update order status", err)
	}

	updated := *o
	updated.Status = to
	return &updated, nil
}
