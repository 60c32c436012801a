package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/doormarket/internal/model"
)

var tables = map[model.ItemKind]string{
	model.ItemKindDoor:          "doors",
	model.ItemKindDoorAccessory: "door_accessories",
	model.ItemKindMoulding:      "mouldings",
}

// SQLResolver читает товары одного вида из таблицы каталога.
type SQLResolver struct {
	db    *sql.DB
	kind  model.ItemKind
	query string
}

// NewSQLResolver создаёт Resolver для таблицы каталога указанного вида товара.
func NewSQLResolver(db *sql.DB, kind model.ItemKind) (*SQLResolver, error) {
	table, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("no catalog table for item kind %q", kind)
	}
	return &SQLResolver{
		db:    db,
		kind:  kind,
		query: fmt.Sprintf(`SELECT name, price::text, image_url FROM %s WHERE id = $1`, table),
	}, nil
}

// NewSQLRegistry создаёт реестр из трёх SQL-каталогов.
func NewSQLRegistry(db *sql.DB) (*Registry, error) {
	doors, err := NewSQLResolver(db, model.ItemKindDoor)
	if err != nil {
		return nil, err
	}
	accessories, err := NewSQLResolver(db, model.ItemKindDoorAccessory)
	if err != nil {
		return nil, err
	}
	mouldings, err := NewSQLResolver(db, model.ItemKindMoulding)
	if err != nil {
		return nil, err
	}
	return NewRegistry(doors, accessories, mouldings), nil
}

// Resolve возвращает текущие название, цену и изображение товара.
func (r *SQLResolver) Resolve(ctx context.Context, id int64) (*model.CatalogItem, error) {
	var (
		name     string
		price    string
		imageURL sql.NullString
	)

	err := r.db.QueryRowContext(ctx, r.query, id).Scan(&name, &price, &imageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", r.kind, id, model.ErrItemNotFound)
		}
		return nil, fmt.Errorf("select %s %d: %w", r.kind, id, err)
	}

	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price of %s %d: %w", r.kind, id, err)
	}

	return &model.CatalogItem{
		Kind:      r.kind,
		ID:        id,
		Name:      name,
		UnitPrice: unitPrice,
		ImageURL:  imageURL.String,
	}, nil
}
