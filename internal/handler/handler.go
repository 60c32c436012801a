// Package handler содержит HTTP-обработчики API сервиса doormarket.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/doormarket/internal/middleware"
	"github.com/mmeshcher/doormarket/internal/model"
	"github.com/mmeshcher/doormarket/internal/service"
	"github.com/mmeshcher/doormarket/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, reg service.Registration) (int64, error)
	AuthenticateUser(ctx context.Context, login, password string) (int64, error)
	CurrentUser(ctx context.Context, userID int64) (model.Identity, error)

	GetOrCreateBasket(ctx context.Context, userID int64) (*model.Basket, error)
	AddItem(ctx context.Context, userID int64, kind model.ItemKind, itemID int64, quantity int) (*model.Basket, error)
	UpdateLineQuantity(ctx context.Context, userID, lineID int64, quantity int, version int64) (*model.Basket, error)
	RemoveLine(ctx context.Context, userID, lineID int64, version int64) error
	ClearBasket(ctx context.Context, userID int64) error

	Checkout(ctx context.Context, user model.Identity, req service.CheckoutRequest) (*service.CheckoutResult, error)

	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
	AdvanceOrderStatus(ctx context.Context, actor model.Identity, orderID int64, to model.OrderStatus) (*model.Order, error)
}

// Handler реализует HTTP-обработчики API сервиса doormarket.
type Handler struct {
	service         Service
	logger          *zap.Logger
	authMiddleware  *middleware.AuthMiddleware
	checkoutLimiter *middleware.UserRateLimiter
	validator       *validation.Validator
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// limiter может быть nil, тогда оформление заказов не ограничивается.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, limiter *middleware.UserRateLimiter) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:         s,
		logger:          logger,
		authMiddleware:  auth,
		checkoutLimiter: limiter,
		validator:       validation.MustNew(),
	}
}

type errorResponse struct {
	Error   string  `json:"error"`
	LineIDs []int64 `json:"line_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode читает JSON из тела запроса и проверяет его по тегам validate.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathID разбирает положительный числовой идентификатор из пути.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return id, ok
}

// serviceError переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var unavailable *model.ItemUnavailableError

	switch {
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   model.ErrItemUnavailable.Error(),
			LineIDs: unavailable.LineIDs,
		})
	case errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrInvalidOrderType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrItemNotFound):
		writeError(w, http.StatusNotFound, model.ErrItemNotFound.Error())
	case errors.Is(err, model.ErrLineNotFound):
		writeError(w, http.StatusNotFound, model.ErrLineNotFound.Error())
	case errors.Is(err, model.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, model.ErrOrderNotFound.Error())
	case errors.Is(err, model.ErrConcurrentModification):
		writeError(w, http.StatusConflict, model.ErrConcurrentModification.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusConflict, model.ErrInvalidTransition.Error())
	case errors.Is(err, model.ErrUserExists):
		writeError(w, http.StatusConflict, model.ErrUserExists.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, model.ErrInvalidCredentials.Error())
	case errors.Is(err, model.ErrUserNotFound):
		// токен пережил удаление пользователя
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, model.ErrForbidden.Error())
	default:
		fields := []zap.Field{zap.Error(err)}
		if rid, ok := middleware.GetRequestID(r.Context()); ok {
			fields = append(fields, zap.String("requestID", rid))
		}
		h.logger.Error(op+" error", fields...)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

type registerRequest struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,e164"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterUser(r.Context(), service.Registration{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.serviceError(w, r, "register user", err)
		return
	}

	h.login(w, id)
}

type credentialsRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login выполняет аутентификацию пользователя и устанавливает cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		h.serviceError(w, r, "login user", err)
		return
	}

	h.login(w, id)
}

func (h *Handler) login(w http.ResponseWriter, userID int64) {
	if err := h.authMiddleware.SetAuthCookie(w, userID); err != nil {
		h.logger.Error("set auth cookie error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
