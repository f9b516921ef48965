package errx

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapStore(t *testing.T) {
	assert.NoError(t, WrapStore(nil))

	err := WrapStore(sql.ErrNoRows)
	assert.True(t, IsKind(err, KindNotFound))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = WrapStore(errors.New("disk full"))
	assert.True(t, IsKind(err, KindStorage))
	assert.Contains(t, err.Error(), "disk full")
}

func TestInternal(t *testing.T) {
	assert.NoError(t, Internal(nil))

	cause := errors.New("json: unsupported value")
	err := Internal(cause)
	assert.True(t, IsKind(err, KindInternal))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal error: json: unsupported value", err.Error())
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.True(t, IsKind(WrapRedis(redis.Nil), KindNotFound))
	assert.True(t, IsKind(WrapRedis(errors.New("dial tcp: refused")), KindCache))
}

func TestAppErrorAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load orders: %w", WrapStore(errors.New("locked")))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, KindStorage, appErr.Kind)
	assert.Equal(t, "storage", appErr.Kind.String())
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("discount factor %.2f out of range", 1.5)
	assert.Equal(t, "discount factor 1.50 out of range", err.Error())
	assert.True(t, IsKind(err, KindInvalidInput))
}
