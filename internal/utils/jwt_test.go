package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestGenerateAndParseToken(t *testing.T) {
	account := &models.Account{Email: "admin@shop.io", Role: models.RoleAdmin}
	account.ID = uuid.New()

	token, err := GenerateToken("secret", account, time.Hour)
	require.NoError(t, err)

	actor, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, actor.ID)
	assert.Equal(t, models.RoleAdmin, actor.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	account := &models.Account{Role: models.RoleCustomer}
	account.ID = uuid.New()

	token, err := GenerateToken("secret", account, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	account := &models.Account{Role: models.RoleCustomer}
	account.ID = uuid.New()

	token, err := GenerateToken("secret", account, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))

	_, err = HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, NewPagination(0, 0))
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Offset: 20}, NewPagination(3, 10))
	assert.Equal(t, 100, NewPagination(1, 500).Limit)
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}

	assert.NoError(t, ValidateStruct(input{Email: "a@b.io", Password: "secret1"}))

	err := ValidateStruct(input{Email: "nope", Password: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is not a valid email")
	assert.Contains(t, err.Error(), "password is shorter than 6")
}
