// Package catalog разрешает ссылки на товары (вид + идентификатор) в текущие данные каталогов.
package catalog

import (
	"context"
	"fmt"

	"github.com/mmeshcher/doormarket/internal/model"
)

// Lookup разрешает товар любого вида.
// Если товара нет, возвращается ошибка, совпадающая с model.ErrItemNotFound.
type Lookup interface {
	Resolve(ctx context.Context, kind model.ItemKind, id int64) (*model.CatalogItem, error)
}

// Resolver разрешает товары одного каталога.
type Resolver interface {
	Resolve(ctx context.Context, id int64) (*model.CatalogItem, error)
}

// Registry направляет запрос в каталог соответствующего вида товара.
type Registry struct {
	resolvers map[model.ItemKind]Resolver
}

// NewRegistry создаёт реестр каталогов. Для каждого вида товара нужен свой Resolver.
func NewRegistry(doors, accessories, mouldings Resolver) *Registry {
	return &Registry{
		resolvers: map[model.ItemKind]Resolver{
			model.ItemKindDoor:          doors,
			model.ItemKindDoorAccessory: accessories,
			model.ItemKindMoulding:      mouldings,
		},
	}
}

// Resolve реализует Lookup.
func (r *Registry) Resolve(ctx context.Context, kind model.ItemKind, id int64) (*model.CatalogItem, error) {
	res, ok := r.resolvers[kind]
	if !ok || res == nil {
		return nil, fmt.Errorf("unknown item kind %q: %w", kind, model.ErrItemNotFound)
	}
	return res.Resolve(ctx, id)
}
