package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmeshcher/doormarket/internal/model"
)

type deliveryResponse struct {
	Address               string `json:"address"`
	PreferredDeliveryTime string `json:"preferred_delivery_time,omitempty"`
	Comment               string `json:"comment,omitempty"`
	InstallationNotes     string `json:"installation_notes,omitempty"`
	DeliveryNotes         string `json:"delivery_notes,omitempty"`
}

type orderResponse struct {
	ID            int64             `json:"id"`
	ItemKind      model.ItemKind    `json:"item_kind"`
	ItemID        int64             `json:"item_id"`
	ItemName      string            `json:"item_name"`
	UnitPrice     string            `json:"unit_price"`
	Quantity      int               `json:"quantity"`
	Total         string            `json:"total"`
	OrderType     model.OrderType   `json:"order_type"`
	Status        model.OrderStatus `json:"status"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	Delivery      deliveryResponse  `json:"delivery"`
	CreatedAt     string            `json:"created_at"`
}

func newOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		ItemKind:      o.ItemKind,
		ItemID:        o.ItemID,
		ItemName:      o.ItemName,
		UnitPrice:     o.UnitPrice.StringFixed(2),
		Quantity:      o.Quantity,
		Total:         o.Total().StringFixed(2),
		OrderType:     o.OrderType,
		Status:        o.Status,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Delivery: deliveryResponse{
			Address:               o.Delivery.Address,
			PreferredDeliveryTime: o.Delivery.PreferredDeliveryTime,
			Comment:               o.Delivery.Comment,
			InstallationNotes:     o.Delivery.InstallationNotes,
			DeliveryNotes:         o.Delivery.DeliveryNotes,
		},
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}

// GetOrders возвращает список заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), uid)
	if err != nil {
		h.serviceError(w, r, "get orders", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ текущего пользователя.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), uid, orderID)
	if err != nil {
		h.serviceError(w, r, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(*o))
}

// CancelOrder отменяет заказ текущего пользователя.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.CancelOrder(r.Context(), uid, orderID)
	if err != nil {
		h.serviceError(w, r, "cancel order", err)
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(*o))
}

type statusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,orderstatus"`
}

// AdvanceOrderStatus меняет статус заказа от имени администратора.
func (h *Handler) AdvanceOrderStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor, err := h.service.CurrentUser(r.Context(), uid)
	if err != nil {
		h.serviceError(w, r, "get current user", err)
		return
	}

	o, err := h.service.AdvanceOrderStatus(r.Context(), actor, orderID, req.Status)
	if err != nil {
		h.serviceError(w, r, "advance order status", err)
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(*o))
}

func parseVersion(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
