package user

import (
	"context"
	"time"

	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/validate"
)

// Role is the authorisation level of a dashboard user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// User is an operator account.
type User struct {
	ID        int64
	Username  string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Form is the registration or edit input of a user. Password is only
// required on registration.
type Form struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     Role   `json:"role" validate:"oneof=ADMIN MANAGER STAFF"`
	Active   bool   `json:"is_active"`
}

// Validate checks the form field by field.
func (f Form) Validate() error {
	return validate.Struct(f)
}

// ValidateRegistration additionally requires a password.
func (f Form) ValidateRegistration() error {
	err := f.Validate()
	if f.Password != "" {
		return err
	}
	fe, ok := err.(validate.FieldErrors)
	if !ok {
		if err != nil {
			return err
		}
		fe = validate.FieldErrors{}
	}
	fe["password"] = "is required"
	return fe
}

// Repository defines the backend operations on users.
type Repository interface {
	List(ctx context.Context, q page.Query) (*page.Result[User], error)
	Get(ctx context.Context, id int64) (*User, error)
	Register(ctx context.Context, f Form) (*User, error)
	Update(ctx context.Context, id int64, f Form) (*User, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}
