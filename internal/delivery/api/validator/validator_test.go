package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
)

type signup struct {
	Username string `json:"username" validate:"required,max=70"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

func TestValidate_Valid(t *testing.T) {
	err := New().Validate(&signup{Username: "alice", Email: "a@x.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := New().Validate(&signup{
		Username: strings.Repeat("u", 71),
		Email:    "not-an-email",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	validationErr, ok := errors.AsType[*domainerrors.ValidationError](err)
	require.True(t, ok)

	byField := map[string]domainerrors.FieldError{}
	for _, f := range validationErr.Fields() {
		byField[f.Field] = f
	}
	require.Len(t, byField, 3)
	assert.Equal(t, "max", byField["username"].Tag)
	assert.Equal(t, "email", byField["email"].Tag)
	assert.Equal(t, "required", byField["password"].Tag)
	assert.Equal(t, "field required", byField["password"].Message)
}

func TestValidate_EmailLengthLimit(t *testing.T) {
	long := strings.Repeat("a", 250) + "@x.com"
	err := New().Validate(&signup{Username: "alice", Email: long, Password: "p"})
	require.Error(t, err)

	validationErr, ok := errors.AsType[*domainerrors.ValidationError](err)
	require.True(t, ok)
	require.Len(t, validationErr.Fields(), 1)
	assert.Equal(t, "email", validationErr.Fields()[0].Field)
}
