// Package model содержит доменные сущности маркетплейса дверей и фурнитуры.
package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Role определяет роль пользователя.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	Name         string
	Email        string
	Phone        string
	Role         Role
	CreatedAt    time.Time
}

// Identity — данные аутентифицированного пользователя, которые копируются в заказ.
type Identity struct {
	ID    int64
	Name  string
	Email string
	Phone string
	Role  Role
}

// Identity возвращает контактные данные пользователя.
func (u *User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

// ItemKind — вид товара, к одному из каталогов которого относится позиция.
type ItemKind string

const (
	ItemKindDoor          ItemKind = "DOOR"
	ItemKindDoorAccessory ItemKind = "DOOR_ACCESSORY"
	ItemKindMoulding      ItemKind = "MOULDING"
)

// ItemKinds перечисляет все виды товаров.
var ItemKinds = []ItemKind{ItemKindDoor, ItemKindDoorAccessory, ItemKindMoulding}

// Valid сообщает, является ли значение известным видом товара.
func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindDoor, ItemKindDoorAccessory, ItemKindMoulding:
		return true
	}
	return false
}

// CatalogItem — текущее состояние товара в каталоге.
type CatalogItem struct {
	Kind      ItemKind
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
}

// Basket — корзина пользователя. У каждого пользователя ровно одна корзина.
type Basket struct {
	ID        int64
	UserID    int64
	Lines     []BasketLine
	CreatedAt time.Time
}

// Total пересчитывает стоимость корзины по текущим позициям.
func (b *Basket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Line возвращает позицию корзины по идентификатору.
func (b *Basket) Line(lineID int64) (BasketLine, bool) {
	for _, l := range b.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return BasketLine{}, false
}

// MaxQuantity — наибольшее количество товара в одной позиции корзины и в заказе.
const MaxQuantity = math.MaxInt32

// BasketLine — позиция корзины. Цена, название и изображение фиксируются при добавлении.
type BasketLine struct {
	ID        int64
	BasketID  int64
	ItemKind  ItemKind
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
	Name      string
	ImageURL  string
	Version   int64
}

// Subtotal возвращает стоимость позиции.
func (l BasketLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderType — комплектация заказа.
type OrderType string

const (
	OrderTypeFullSet    OrderType = "FULL_SET"
	OrderTypeCanvasOnly OrderType = "CANVAS_ONLY"
)

// Valid сообщает, является ли значение известной комплектацией.
func (t OrderType) Valid() bool {
	return t == OrderTypeFullSet || t == OrderTypeCanvasOnly
}

// Delivery содержит параметры доставки из запроса на оформление заказа.
type Delivery struct {
	Address               string
	PreferredDeliveryTime string
	Comment               string
	InstallationNotes     string
	DeliveryNotes         string
}

// Order — заказ на одну позицию корзины. После создания меняется только статус.
type Order struct {
	ID            int64
	UserID        int64
	ItemKind      ItemKind
	ItemID        int64
	ItemName      string
	UnitPrice     decimal.Decimal
	Quantity      int
	OrderType     OrderType
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Delivery      Delivery
	Status        OrderStatus
	CreatedAt     time.Time
}

// Total возвращает стоимость заказа.
func (o Order) Total() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
