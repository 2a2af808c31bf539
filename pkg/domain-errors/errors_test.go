package domainerrors_test

import (
	"errors"
	"testing"

	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/sentinel"

	"github.com/stretchr/testify/assert"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := dErrors.New(dErrors.CodeNotFound, "location does not exist")

	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	assert.Equal(t, "location does not exist", dErrors.MessageOf(err))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.False(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := sentinel.ErrConflict
	err := dErrors.Wrap(cause, dErrors.CodeConflict, "email already registered")

	assert.True(t, errors.Is(err, sentinel.ErrConflict))
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.Equal(t, "email already registered", dErrors.MessageOf(err))
	assert.Equal(t, "email already registered: conflict", err.Error())
}

func TestOutermostCodeWins(t *testing.T) {
	inner := dErrors.New(dErrors.CodeInternal, "auth server unreachable")
	outer := dErrors.Wrap(inner, dErrors.CodeBadRequest, "registration rejected")

	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(outer))
	assert.Equal(t, "registration rejected", dErrors.MessageOf(outer))
}

func TestUncodedErrorDefaultsToInternal(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
	assert.False(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Equal(t, "connection reset", dErrors.MessageOf(err))
}

func TestNilError(t *testing.T) {
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(nil))
	assert.Empty(t, dErrors.MessageOf(nil))
	assert.False(t, dErrors.HasCode(nil, dErrors.CodeInternal))
}
