package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/doormarket/internal/model"
)

// memRepo — хранилище в памяти с той же семантикой версий и атомарности, что и PostgreSQL.
type memRepo struct {
	mu sync.Mutex

	users   map[int64]*model.User
	baskets map[int64]*model.Basket // по userID
	orders  []model.Order

	nextID int64

	// beforeCommit вызывается внутри CommitCheckout до проверки состава корзины.
	beforeCommit func(r *memRepo)
	commitErr    error
	getErr       error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:   map[int64]*model.User{},
		baskets: map[int64]*model.Basket{},
	}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Login == u.Login {
			return 0, fmt.Errorf("%w: %s", model.ErrUserExists, u.Login)
		}
	}
	cp := *u
	cp.ID = r.id()
	r.users[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memRepo) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) basketByID(basketID int64) *model.Basket {
	for _, b := range r.baskets {
		if b.ID == basketID {
			return b
		}
	}
	return nil
}

func copyBasket(b *model.Basket) *model.Basket {
	cp := *b
	cp.Lines = slices.Clone(b.Lines)
	return &cp
}

func (r *memRepo) GetOrCreateBasket(ctx context.Context, userID int64) (*model.Basket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	b, ok := r.baskets[userID]
	if !ok {
		b = &model.Basket{ID: r.id(), UserID: userID, CreatedAt: time.Now()}
		r.baskets[userID] = b
	}
	return copyBasket(b), nil
}

func (r *memRepo) AddBasketLine(ctx context.Context, basketID int64, line model.BasketLine) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.basketByID(basketID)
	if b == nil {
		return 0, fmt.Errorf("basket %d does not exist", basketID)
	}
	for i := range b.Lines {
		l := &b.Lines[i]
		if l.ItemKind == line.ItemKind && l.ItemID == line.ItemID {
			if line.Quantity > model.MaxQuantity-l.Quantity {
				return 0, model.ErrInvalidQuantity
			}
			l.Quantity += line.Quantity
			l.Version++
			return l.ID, nil
		}
	}
	line.ID = r.id()
	line.BasketID = basketID
	line.Version = 1
	b.Lines = append(b.Lines, line)
	return line.ID, nil
}

func (r *memRepo) findLine(basketID, lineID int64, version int64) (*model.Basket, int, error) {
	b := r.basketByID(basketID)
	if b == nil {
		return nil, 0, model.ErrLineNotFound
	}
	for i, l := range b.Lines {
		if l.ID != lineID {
			continue
		}
		if l.Version != version {
			return nil, 0, model.ErrConcurrentModification
		}
		return b, i, nil
	}
	return nil, 0, model.ErrLineNotFound
}

func (r *memRepo) UpdateBasketLineQuantity(ctx context.Context, basketID, lineID int64, quantity int, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, i, err := r.findLine(basketID, lineID, version)
	if err != nil {
		return err
	}
	b.Lines[i].Quantity = quantity
	b.Lines[i].Version++
	return nil
}

func (r *memRepo) DeleteBasketLine(ctx context.Context, basketID, lineID int64, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, i, err := r.findLine(basketID, lineID, version)
	if err != nil {
		return err
	}
	b.Lines = slices.Delete(b.Lines, i, i+1)
	return nil
}

func (r *memRepo) ClearBasket(ctx context.Context, basketID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.basketByID(basketID); b != nil {
		b.Lines = nil
	}
	return nil
}

func (r *memRepo) CommitCheckout(ctx context.Context, basketID int64, lines []model.BasketLine, orders []model.Order) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.beforeCommit != nil {
		r.beforeCommit(r)
	}
	if r.commitErr != nil {
		return nil, r.commitErr
	}

	b := r.basketByID(basketID)
	if b == nil || len(b.Lines) != len(lines) {
		return nil, model.ErrConcurrentModification
	}
	for i, l := range b.Lines {
		if l.ID != lines[i].ID || l.Version != lines[i].Version {
			return nil, model.ErrConcurrentModification
		}
	}

	created := slices.Clone(orders)
	for i := range created {
		created[i].ID = r.id()
		created[i].CreatedAt = time.Now()
	}
	r.orders = append(r.orders, created...)
	b.Lines = nil
	return created, nil
}

func (r *memRepo) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].UserID == userID {
			res = append(res, r.orders[i])
		}
	}
	return res, nil
}

func (r *memRepo) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == orderID {
			cp := o
			return &cp, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (r *memRepo) UpdateOrderStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID != orderID {
			continue
		}
		if r.orders[i].Status != from {
			return model.ErrConcurrentModification
		}
		r.orders[i].Status = to
		return nil
	}
	return model.ErrOrderNotFound
}

func (r *memRepo) orderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// memCatalog — каталог в памяти.
type memCatalog struct {
	mu    sync.Mutex
	items map[string]model.CatalogItem
	err   error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{items: map[string]model.CatalogItem{}}
}

func catalogKey(kind model.ItemKind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func (c *memCatalog) put(kind model.ItemKind, id int64, name, price string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[catalogKey(kind, id)] = model.CatalogItem{
		Kind:      kind,
		ID:        id,
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		ImageURL:  fmt.Sprintf("https://img/%s/%d.png", kind, id),
	}
}

func (c *memCatalog) remove(kind model.ItemKind, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, catalogKey(kind, id))
}

func (c *memCatalog) Resolve(ctx context.Context, kind model.ItemKind, id int64) (*model.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	item, ok := c.items[catalogKey(kind, id)]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", kind, id, model.ErrItemNotFound)
	}
	return &item, nil
}
