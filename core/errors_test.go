package core

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsShutdown(t *testing.T) {
	shutdownErr := NewShutdownError("rollback failed")

	assert.True(t, IsShutdown(shutdownErr))
	assert.True(t, IsShutdown(pkgerrors.Wrap(shutdownErr, "creating report")))
	assert.False(t, IsShutdown(errors.New("rollback failed")))
	assert.False(t, IsShutdown(nil))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(errors.New("invalid"), FieldError{Field: "email", Error: "taken"})
	assert.Equal(t, "invalid", err.Error())

	var verr *ValidationError
	if assert.True(t, errors.As(err, &verr)) {
		assert.Equal(t, []FieldError{{Field: "email", Error: "taken"}}, verr.Fields)
	}
	assert.Equal(t, "", ValidationError{}.Error())
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanString("  Jane Doe \n"))
	assert.Equal(t, "jane@uni.test", CleanString(" Jane@UNI.test ", true))
}
