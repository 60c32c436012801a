package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrItemNotFound возвращается, если каталог не знает запрошенный товар.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidQuantity возвращается при недопустимом количестве.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrLineNotFound возвращается, если позиция не найдена в корзине пользователя.
	ErrLineNotFound = errors.New("basket line not found")
	// ErrConcurrentModification возвращается, если данные изменились после чтения. Запрос можно повторить.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrItemUnavailable возвращается при оформлении, если часть товаров пропала из каталога.
	ErrItemUnavailable = errors.New("item unavailable")
	// ErrInvalidOrderType возвращается при неизвестной комплектации заказа.
	ErrInvalidOrderType = errors.New("invalid order type")
	// ErrPersistence оборачивает инфраструктурные ошибки хранилища.
	ErrPersistence = errors.New("persistence failure")

	// ErrOrderNotFound возвращается, если заказ не найден или принадлежит другому пользователю.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition возвращается при недопустимой смене статуса заказа.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrForbidden возвращается, если у пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")

	// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials возвращается при неверном логине или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ItemUnavailableError перечисляет все позиции корзины, товары которых отсутствуют в каталоге.
type ItemUnavailableError struct {
	LineIDs []int64
}

func (e *ItemUnavailableError) Error() string {
	ids := make([]string, 0, len(e.LineIDs))
	for _, id := range e.LineIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return fmt.Sprintf("%s: basket lines %s", ErrItemUnavailable, strings.Join(ids, ", "))
}

// Is позволяет сравнивать ошибку с ErrItemUnavailable через errors.Is.
func (e *ItemUnavailableError) Is(target error) bool {
	return target == ErrItemUnavailable
}
