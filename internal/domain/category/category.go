// Package category holds the product category catalog. Categories are kept
// client-side only; the backend has no category endpoints.
package category

import (
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/salesledger/internal/validate"
)

// ErrNotFound is returned for an unknown category id.
var ErrNotFound = errors.New("category not found")

// Status is the visibility state of a category.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// Category groups products for display.
type Category struct {
	ID        string
	NameEn    string
	NameAr    string
	ImageURL  string
	Status    Status
	CreatedAt time.Time
}

// Form is the create/update input of a category.
type Form struct {
	NameEn   string `json:"nameEn" validate:"required,min=2"`
	NameAr   string `json:"nameAr" validate:"required,min=2"`
	ImageURL string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Status   Status `json:"status" validate:"oneof=active inactive archived"`
}

// Validate checks the form field by field.
func (f Form) Validate() error {
	return validate.Struct(f)
}
