package service

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubTransError(t *testing.T) {
	err := WrapError(io.ErrUnexpectedEOF, ErrParse, "failed to read subtitle file").
		WithContext("input", "ep01.ass").
		WithContext("format", "ass")

	assert.Equal(t, "[Parse] failed to read subtitle file | context: format=ass, input=ep01.ass | cause: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	wrapped := fmt.Errorf("run: %w", err)
	assert.True(t, IsErrorType(wrapped, ErrParse))
	assert.False(t, IsErrorType(wrapped, ErrAPI))
	assert.False(t, IsErrorType(errors.New("plain"), ErrParse))
}

func TestErrorHandler(t *testing.T) {
	h := NewDefaultErrorHandler()

	assert.True(t, h.Handle(fmt.Errorf("wrapped: %w", NewError(ErrLocked, "busy"))))
	assert.False(t, h.Handle(errors.New("plain")))

	for typ := ErrFileNotFound; typ <= ErrUnknown; typ++ {
		assert.NotEmpty(t, h.GetAdvice(NewError(typ, "x")), typ.String())
	}
	assert.Contains(t, h.GetAdvice(NewError(ErrAPI, "x")), "LLM_API_URL")
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute(func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrUnknown))
	assert.Contains(t, err.Error(), "runtime error")

	assert.NoError(t, SafeExecute(func() error { return nil }))
	assert.Equal(t, io.EOF, SafeExecute(func() error { return io.EOF }))
}
