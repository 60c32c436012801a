// Package validation содержит проверку входных данных API.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmeshcher/doormarket/internal/model"
)

// Validator проверяет DTO запросов по тегам validate.
type Validator struct {
	v *validator.Validate
}

// New создаёт валидатор с правилами для доменных перечислений.
func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	rules := map[string]func(string) bool{
		"itemkind":    func(s string) bool { return model.ItemKind(s).Valid() },
		"ordertype":   func(s string) bool { return model.OrderType(s).Valid() },
		"orderstatus": func(s string) bool { return model.OrderStatus(s).Valid() },
	}
	if err := register(v, rules); err != nil {
		return nil, err
	}

	return &Validator{v: v}, nil
}

// MustNew как New, но паникует при ошибке регистрации правил.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

func register(v *validator.Validate, rules map[string]func(string) bool) error {
	for tag, fn := range rules {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
		if err != nil {
			return fmt.Errorf("register %q rule: %w", tag, err)
		}
	}
	return nil
}

// Struct проверяет структуру и возвращает ошибку с перечнем невалидных полей.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}
