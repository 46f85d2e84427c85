package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, isDuplicateKey(nil))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("create: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation})))
	assert.False(t, isDuplicateKey(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.True(t, isDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_promo_codes_code"`)))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: promo_codes.code")))
}
