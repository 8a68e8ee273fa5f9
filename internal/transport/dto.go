package transport

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateAdRequest struct {
	Title       string          `json:"title"       validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"required,min=10,max=5000"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  uint            `json:"categoryId"  validate:"required"`
	ImageURL    *string         `json:"imageUrl"    validate:"omitempty,max=500"`
}

// PatchAdRequest lists the editable fields. Status and owner are not among them.
type PatchAdRequest struct {
	Title       *string          `json:"title"       validate:"omitempty,min=3,max=200"`
	Description *string          `json:"description" validate:"omitempty,min=10,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *uint            `json:"categoryId"  validate:"omitempty,gt=0"`
	ImageURL    *string          `json:"imageUrl"    validate:"omitempty,max=500"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
