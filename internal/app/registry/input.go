package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/homesolution/homesolution/internal/domain"
)

// validate caches struct info across calls.
var validate = validator.New()

// WorkerInput is a worker registration payload.
type WorkerInput struct {
	Kind     domain.WorkerKind `json:"kind" toml:"kind" validate:"required,oneof=hourly salaried"`
	Name     string            `json:"name" toml:"name" validate:"required"`
	Rate     float64           `json:"rate" toml:"rate" validate:"gt=0"`
	Category string            `json:"category,omitempty" toml:"category" validate:"required_if=Kind salaried"`
}

// ClientInput is a client registration payload.
type ClientInput struct {
	Name  string `json:"name" toml:"name" validate:"required"`
	Email string `json:"email" toml:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" toml:"phone"`
}

// ProjectInput is a project registration payload.
type ProjectInput struct {
	Tasks        []domain.TaskSpec `json:"tasks" validate:"dive"`
	Address      string            `json:"address" validate:"required"`
	Start        time.Time         `json:"start" validate:"required"`
	EstimatedEnd time.Time         `json:"estimated_end" validate:"required"`
	Client       string            `json:"client" validate:"required"`
}

// Client is a registered customer. Projects reference clients by e-mail.
type Client struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// checkInput runs struct-tag validation and maps failures to the domain's
// argument errors.
func checkInput(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' fails rule '%s'", e.StructNamespace(), e.Tag()))
	}
	first := verrs[0]
	return domain.Errorf(sentinelFor(first), "%s", strings.Join(msgs, "; "))
}

// sentinelFor picks the most specific domain error for a failed field.
func sentinelFor(e validator.FieldError) *domain.Error {
	switch e.Field() {
	case "Name":
		return domain.ErrEmptyName
	case "Rate":
		return domain.ErrInvalidRate
	case "Kind":
		return domain.ErrInvalidKind
	case "Category":
		return domain.ErrInvalidCategory
	case "Title":
		return domain.ErrEmptyTitle
	case "Days":
		return domain.ErrInvalidDays
	case "Start", "EstimatedEnd":
		return domain.ErrInvalidDate
	}
	return &domain.Error{Kind: domain.ErrInvalidArgument, Msg: "invalid " + strings.ToLower(e.Field())}
}
