package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Name   string          `json:"name" validate:"required,min=2"`
	Email  string          `json:"email" validate:"omitempty,email"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Tags   []string        `json:"tags" validate:"min=1"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sampleForm{
		Name:   "Acme",
		Amount: decimal.RequireFromString("0.01"),
		Tags:   []string{"a"},
	})
	require.NoError(t, err)
}

func TestStruct_FieldErrors(t *testing.T) {
	err := Struct(sampleForm{
		Name:   "A",
		Email:  "not-an-email",
		Amount: decimal.Zero,
	})

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "must be at least 2 characters", fe["name"])
	assert.Equal(t, "must be a valid email address", fe["email"])
	assert.Equal(t, "must be greater than 0", fe["amount"])
	assert.Equal(t, "must contain at least 1 item(s)", fe["tags"])
}

func TestFieldErrors_ErrorIsSorted(t *testing.T) {
	fe := FieldErrors{"b": "bad", "a": "worse"}
	assert.Equal(t, "validation failed: a: worse; b: bad", fe.Error())
}
