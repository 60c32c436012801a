package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/doormarket/internal/model"
)

var passwordCost = bcrypt.DefaultCost

// Registration содержит данные для регистрации пользователя.
type Registration struct {
	Login    string
	Password string
	Name     string
	Email    string
	Phone    string
}

// RegisterUser регистрирует нового покупателя.
func (s *Service) RegisterUser(ctx context.Context, reg Registration) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), passwordCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, &model.User{
		Login:        reg.Login,
		PasswordHash: hashed,
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		Role:         model.RoleCustomer,
	})
	if err != nil {
		return 0, storageErr("create user", err)
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (int64, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return 0, model.ErrInvalidCredentials
		}
		return 0, storageErr("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return 0, model.ErrInvalidCredentials
	}

	return u.ID, nil
}

// CurrentUser возвращает контактные данные аутентифицированного пользователя.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (model.Identity, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return model.Identity{}, storageErr("get user", err)
	}
	return u.Identity(), nil
}
