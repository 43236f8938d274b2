package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/georeminder/internal/domain"
)

func TestOk(t *testing.T) {
	r := domain.Ok(42)

	assert.True(t, r.IsSuccess())
	assert.Nil(t, r.Failure())
	assert.NoError(t, r.Err())

	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestFail_NotFoundCode(t *testing.T) {
	cause := fmt.Errorf("repo: %w", domain.ErrNotFound)
	r := domain.Fail[domain.Reminder](domain.MsgReminderNotFound, cause)

	require.False(t, r.IsSuccess())
	assert.Equal(t, domain.MsgReminderNotFound, r.Failure().Message)
	assert.Equal(t, domain.CodeNotFound, r.Failure().Code)
	assert.ErrorIs(t, r.Err(), domain.ErrNotFound)

	v, ok := r.Value()
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestFail_NilCause(t *testing.T) {
	r := domain.Fail[domain.Unit]("boom", nil)

	require.Error(t, r.Err())
	assert.Equal(t, "boom", r.Err().Error())
	assert.Zero(t, r.Failure().Code)
	assert.Nil(t, errors.Unwrap(r.Err()))
}

func TestFailErr(t *testing.T) {
	cause := errors.New("disk full")
	r := domain.FailErr[int](cause)

	assert.Equal(t, "disk full", r.Failure().Message)
	assert.ErrorIs(t, r.Err(), cause)
}

func TestWithCode(t *testing.T) {
	base := domain.Fail[int]("x", nil)
	coded := base.WithCode(domain.CodeInternal)

	assert.Equal(t, domain.CodeInternal, coded.Failure().Code)
	assert.Zero(t, base.Failure().Code, "WithCode must not mutate the receiver")

	ok := domain.Ok(1).WithCode(domain.CodeInternal)
	assert.True(t, ok.IsSuccess())
}

func TestUnwrap(t *testing.T) {
	v, err := domain.Ok("a").Unwrap()
	assert.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = domain.Fail[string]("b", nil).Unwrap()
	assert.Error(t, err)
	assert.Empty(t, v)
}
