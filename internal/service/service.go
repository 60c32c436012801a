// Package service реализует бизнес-логику маркетплейса: корзину, оформление и заказы.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/doormarket/internal/catalog"
	"github.com/mmeshcher/doormarket/internal/model"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	GetOrCreateBasket(ctx context.Context, userID int64) (*model.Basket, error)
	AddBasketLine(ctx context.Context, basketID int64, line model.BasketLine) (int64, error)
	UpdateBasketLineQuantity(ctx context.Context, basketID, lineID int64, quantity int, version int64) error
	DeleteBasketLine(ctx context.Context, basketID, lineID int64, version int64) error
	ClearBasket(ctx context.Context, basketID int64) error

	CommitCheckout(ctx context.Context, basketID int64, lines []model.BasketLine, orders []model.Order) ([]model.Order, error)

	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error
}

// Service содержит бизнес-логику маркетплейса.
type Service struct {
	repo Repository

	// items используется при добавлении в корзину и может быть кэширован.
	items catalog.Lookup
	// checkoutItems используется для проверки корзины при оформлении и не кэшируется.
	checkoutItems catalog.Lookup

	logger *zap.Logger
}

// NewService создаёт новый сервис.
// items разрешает товары при добавлении в корзину, checkoutItems — при оформлении заказа.
func NewService(repo Repository, items, checkoutItems catalog.Lookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		items:         items,
		checkoutItems: checkoutItems,
		logger:        logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

var domainErrors = []error{
	model.ErrItemNotFound,
	model.ErrInvalidQuantity,
	model.ErrLineNotFound,
	model.ErrConcurrentModification,
	model.ErrItemUnavailable,
	model.ErrInvalidOrderType,
	model.ErrOrderNotFound,
	model.ErrInvalidTransition,
	model.ErrForbidden,
	model.ErrUserExists,
	model.ErrUserNotFound,
	model.ErrInvalidCredentials,
	model.ErrPersistence,
}

// storageErr пропускает доменные ошибки без изменений, а остальные помечает как model.ErrPersistence.
func storageErr(op string, err error) error {
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrPersistence, err)
}
