package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/domain/user"
	"github.com/xenking/salesledger/internal/session"
)

type userDTO struct {
	ID        flexID   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	IsActive  bool     `json:"is_active"`
	CreatedAt wireTime `json:"created_at"`
	UpdatedAt wireTime `json:"updated_at"`
}

func (d userDTO) domain() user.User {
	return user.User{
		ID:        int64(d.ID),
		Username:  d.Username,
		Email:     d.Email,
		Role:      user.Role(d.Role),
		Active:    d.IsActive,
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.UpdatedAt.Time,
	}
}

// Login exchanges credentials for a token pair. The caller stores the pair in
// its session.
func (c *Client) Login(ctx context.Context, email, password string) (session.Tokens, *user.User, error) {
	var out loginResponse
	if err := c.call(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out); err != nil {
		return session.Tokens{}, nil, errors.Wrap(err, "login")
	}
	if out.Token == "" {
		return session.Tokens{}, nil, errors.New("login: response has no token")
	}

	var u *user.User
	if out.User != nil {
		v := out.User.domain()
		u = &v
	}
	return session.Tokens{Access: out.Token, Refresh: out.RefreshToken}, u, nil
}

// Users is the user administration endpoint group.
type Users struct {
	c *Client
}

// Users returns the user endpoints.
func (c *Client) Users() *Users { return &Users{c: c} }

var _ user.Repository = (*Users)(nil)

// List pages through users. Query.Deleted selects inactive accounts.
func (u *Users) List(ctx context.Context, q page.Query) (*page.Result[user.User], error) {
	q = q.Normalize()
	v := pageValues(q)
	v.Set("is_active", strconv.FormatBool(!q.Deleted))
	return list(ctx, u.c, "/users", "users", v, userDTO.domain)
}

func (u *Users) Get(ctx context.Context, id int64) (*user.User, error) {
	var d userDTO
	if err := u.c.call(ctx, http.MethodGet, idPath("/users", id), nil, nil, &d); err != nil {
		return nil, errors.Wrapf(err, "get user %d", id)
	}
	v := d.domain()
	return &v, nil
}

// Register creates a user account through the auth endpoint.
func (u *Users) Register(ctx context.Context, f user.Form) (*user.User, error) {
	if err := f.ValidateRegistration(); err != nil {
		return nil, err
	}
	var d userDTO
	if err := u.c.call(ctx, http.MethodPost, "/auth/register", nil, f, &d); err != nil {
		return nil, errors.Wrap(err, "register user")
	}
	v := d.domain()
	return &v, nil
}

func (u *Users) Update(ctx context.Context, id int64, f user.Form) (*user.User, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var d userDTO
	if err := u.c.call(ctx, http.MethodPut, idPath("/users", id), nil, f, &d); err != nil {
		return nil, errors.Wrapf(err, "update user %d", id)
	}
	v := d.domain()
	return &v, nil
}

func (u *Users) Delete(ctx context.Context, id int64) error {
	return u.c.exec(ctx, http.MethodDelete, idPath("/users", id), "delete user")
}

func (u *Users) Restore(ctx context.Context, id int64) error {
	return u.c.exec(ctx, http.MethodPatch, idPath("/users", id)+"/restore", "restore user")
}
