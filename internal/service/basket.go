package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/doormarket/internal/model"
)

// GetOrCreateBasket возвращает корзину пользователя, создавая её при первом обращении.
func (s *Service) GetOrCreateBasket(ctx context.Context, userID int64) (*model.Basket, error) {
	b, err := s.repo.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return nil, storageErr("get basket", err)
	}
	return b, nil
}

// AddItem добавляет товар в корзину.
//
// Если товар уже есть в корзине, увеличивается количество существующей позиции,
// а цена, название и изображение остаются зафиксированными при первом добавлении.
func (s *Service) AddItem(ctx context.Context, userID int64, kind model.ItemKind, itemID int64, quantity int) (*model.Basket, error) {
	if quantity < 1 || quantity > model.MaxQuantity {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidQuantity, quantity)
	}

	item, err := s.items.Resolve(ctx, kind, itemID)
	if err != nil {
		if errors.Is(err, model.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve %s %d: %w", kind, itemID, err)
	}

	b, err := s.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, l := range b.Lines {
		if l.ItemKind == kind && l.ItemID == itemID && quantity > model.MaxQuantity-l.Quantity {
			return nil, fmt.Errorf("%w: %d + %d exceeds %d", model.ErrInvalidQuantity, l.Quantity, quantity, model.MaxQuantity)
		}
	}

	_, err = s.repo.AddBasketLine(ctx, b.ID, model.BasketLine{
		BasketID:  b.ID,
		ItemKind:  kind,
		ItemID:    itemID,
		Quantity:  quantity,
		UnitPrice: item.UnitPrice,
		Name:      item.Name,
		ImageURL:  item.ImageURL,
	})
	if err != nil {
		return nil, storageErr("add basket line", err)
	}

	return s.GetOrCreateBasket(ctx, userID)
}

// UpdateLineQuantity меняет количество позиции корзины. Количество 0 удаляет позицию.
//
// version — версия позиции, которую видел вызывающий; 0 означает текущую сохранённую версию.
// Если версия устарела, возвращается model.ErrConcurrentModification.
// Позиции чужих корзин не видны: для них возвращается model.ErrLineNotFound.
func (s *Service) UpdateLineQuantity(ctx context.Context, userID, lineID int64, quantity int, version int64) (*model.Basket, error) {
	if quantity < 0 || quantity > model.MaxQuantity {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidQuantity, quantity)
	}

	b, err := s.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return nil, err
	}

	line, ok := b.Line(lineID)
	if !ok {
		return nil, model.ErrLineNotFound
	}
	if version == 0 {
		version = line.Version
	}

	if quantity == 0 {
		err = s.repo.DeleteBasketLine(ctx, b.ID, lineID, version)
	} else {
		err = s.repo.UpdateBasketLineQuantity(ctx, b.ID, lineID, quantity, version)
	}
	if err != nil {
		return nil, storageErr("update basket line", err)
	}

	return s.GetOrCreateBasket(ctx, userID)
}

// RemoveLine удаляет позицию из корзины.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID int64, version int64) error {
	_, err := s.UpdateLineQuantity(ctx, userID, lineID, 0, version)
	return err
}

// ClearBasket удаляет все позиции корзины одной операцией.
func (s *Service) ClearBasket(ctx context.Context, userID int64) error {
	b, err := s.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearBasket(ctx, b.ID); err != nil {
		return storageErr("clear basket", err)
	}
	return nil
}
