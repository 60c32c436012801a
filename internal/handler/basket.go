package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/doormarket/internal/model"
	"github.com/mmeshcher/doormarket/internal/service"
)

type basketLineResponse struct {
	ID        int64          `json:"id"`
	ItemKind  model.ItemKind `json:"item_kind"`
	ItemID    int64          `json:"item_id"`
	Name      string         `json:"name"`
	ImageURL  string         `json:"image_url,omitempty"`
	Quantity  int            `json:"quantity"`
	UnitPrice string         `json:"unit_price"`
	Subtotal  string         `json:"subtotal"`
	Version   int64          `json:"version"`
}

type basketResponse struct {
	ID    int64                `json:"id"`
	Lines []basketLineResponse `json:"lines"`
	Total string               `json:"total"`
}

func newBasketResponse(b *model.Basket) basketResponse {
	lines := make([]basketLineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, basketLineResponse{
			ID:        l.ID,
			ItemKind:  l.ItemKind,
			ItemID:    l.ItemID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal().StringFixed(2),
			Version:   l.Version,
		})
	}
	return basketResponse{
		ID:    b.ID,
		Lines: lines,
		Total: b.Total().StringFixed(2),
	}
}

// GetBasket возвращает корзину текущего пользователя, создавая её при первом обращении.
func (h *Handler) GetBasket(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetOrCreateBasket(r.Context(), uid)
	if err != nil {
		h.serviceError(w, r, "get basket", err)
		return
	}

	writeJSON(w, http.StatusOK, newBasketResponse(b))
}

type addItemRequest struct {
	ItemKind model.ItemKind `json:"item_kind" validate:"required,itemkind"`
	ItemID   int64          `json:"item_id" validate:"required,gt=0"`
	Quantity int            `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

// AddItem добавляет товар в корзину.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.AddItem(r.Context(), uid, req.ItemKind, req.ItemID, req.Quantity)
	if err != nil {
		h.serviceError(w, r, "add item", err)
		return
	}

	writeJSON(w, http.StatusOK, newBasketResponse(b))
}

type updateLineRequest struct {
	Quantity *int  `json:"quantity" validate:"required,gte=0,lte=2147483647"`
	Version  int64 `json:"version" validate:"gte=0"`
}

// UpdateLine меняет количество в позиции корзины. Количество 0 удаляет позицию.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	var req updateLineRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.UpdateLineQuantity(r.Context(), uid, lineID, *req.Quantity, req.Version)
	if err != nil {
		h.serviceError(w, r, "update basket line", err)
		return
	}

	writeJSON(w, http.StatusOK, newBasketResponse(b))
}

// RemoveLine удаляет позицию из корзины.
// Версию позиции можно передать в параметре запроса version.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	var version int64
	if v := r.URL.Query().Get("version"); v != "" {
		parsed, ok := parseVersion(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid version")
			return
		}
		version = parsed
	}

	if err := h.service.RemoveLine(r.Context(), uid, lineID, version); err != nil {
		h.serviceError(w, r, "remove basket line", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearBasket удаляет все позиции корзины.
func (h *Handler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearBasket(r.Context(), uid); err != nil {
		h.serviceError(w, r, "clear basket", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	OrderType             model.OrderType `json:"order_type" validate:"required,ordertype"`
	Address               string          `json:"address" validate:"required,max=500"`
	PreferredDeliveryTime string          `json:"preferred_delivery_time" validate:"max=100"`
	Comment               string          `json:"comment" validate:"max=1000"`
	InstallationNotes     string          `json:"installation_notes" validate:"max=1000"`
	DeliveryNotes         string          `json:"delivery_notes" validate:"max=1000"`
}

type checkoutResponse struct {
	Empty   bool            `json:"empty"`
	Orders  []orderResponse `json:"orders"`
	Total   string          `json:"total"`
	Summary string          `json:"summary"`
}

// Checkout оформляет заказы из корзины текущего пользователя.
// Контактные данные покупателя берутся из профиля, а не из запроса.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if verr := h.validator.Struct(req); verr != nil {
		// Для пустой корзины данные доставки не нужны.
		b, err := h.service.GetOrCreateBasket(r.Context(), uid)
		if err != nil {
			h.serviceError(w, r, "get basket", err)
			return
		}
		if len(b.Lines) > 0 {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeJSON(w, http.StatusOK, checkoutResponse{
			Empty:   true,
			Orders:  []orderResponse{},
			Total:   decimal.Zero.StringFixed(2),
			Summary: service.EmptyBasketSummary,
		})
		return
	}

	user, err := h.service.CurrentUser(r.Context(), uid)
	if err != nil {
		h.serviceError(w, r, "get current user", err)
		return
	}

	res, err := h.service.Checkout(r.Context(), user, service.CheckoutRequest{
		OrderType: req.OrderType,
		Delivery: model.Delivery{
			Address:               req.Address,
			PreferredDeliveryTime: req.PreferredDeliveryTime,
			Comment:               req.Comment,
			InstallationNotes:     req.InstallationNotes,
			DeliveryNotes:         req.DeliveryNotes,
		},
	})
	if err != nil {
		h.serviceError(w, r, "checkout", err)
		return
	}

	resp := checkoutResponse{
		Empty:   res.Empty,
		Orders:  make([]orderResponse, 0, len(res.Orders)),
		Total:   res.Total.StringFixed(2),
		Summary: res.Summary,
	}
	for _, o := range res.Orders {
		resp.Orders = append(resp.Orders, newOrderResponse(o))
	}

	status := http.StatusCreated
	if res.Empty {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}
