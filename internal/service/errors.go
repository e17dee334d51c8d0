package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/sakura-subtrans/pkg/log"
)

type ErrorType int

const (
	ErrFileNotFound ErrorType = iota
	ErrFileRead
	ErrFileWrite
	ErrParse
	ErrUnsupported
	ErrAPI
	ErrValidation
	ErrConfig
	ErrLocked
	ErrTranslation
	ErrUnknown
)

// SubTransError is a run-level failure with a category that maps to advice
// for the operator.
type SubTransError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *SubTransError {
	return &SubTransError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *SubTransError {
	return &SubTransError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *SubTransError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *SubTransError) Unwrap() error {
	return e.Cause
}

func (e *SubTransError) WithContext(key string, value any) *SubTransError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	case ErrParse:
		return "Parse"
	case ErrUnsupported:
		return "Unsupported"
	case ErrAPI:
		return "API"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	case ErrLocked:
		return "Locked"
	case ErrTranslation:
		return "Translation"
	default:
		return "Unknown"
	}
}

type ErrorHandler interface {
	Handle(err error) bool
	GetAdvice(err *SubTransError) string
}

type DefaultErrorHandler struct{}

func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{}
}

// Handle logs err with advice. It reports false for errors that are not a
// SubTransError.
func (h *DefaultErrorHandler) Handle(err error) bool {
	var stErr *SubTransError
	if !errors.As(err, &stErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	log.Error("Error Detail: %v\n advice: %s", err, h.GetAdvice(stErr))
	return true
}

// GetAdvice returns error handling advice
func (h *DefaultErrorHandler) GetAdvice(err *SubTransError) string {
	switch err.Type {
	case ErrFileNotFound:
		return "Please check that the subtitle path is correct and the file exists with read permissions"
	case ErrFileRead:
		return "Please check file permissions and verify the subtitle file is not corrupted"
	case ErrFileWrite:
		return "Please ensure the output directory exists and has write permissions"
	case ErrParse:
		return "Please verify the subtitle file is valid ASS/SSA, SRT or WebVTT"
	case ErrUnsupported:
		return "Please convert the subtitle to .ass, .ssa, .srt or .vtt"
	case ErrAPI:
		return "Please check that the completion server is running at LLM_API_URL and serves LLM_MODEL"
	case ErrValidation:
		return "Please verify input parameters are correct, the input path cannot be empty"
	case ErrConfig:
		return "Please check that the config file or environment variables are set correctly"
	case ErrLocked:
		return "Another run is writing the same output; wait for it to finish"
	case ErrTranslation:
		return "Some lines could not be translated; check the server logs or lower BATCH_SIZE"
	default:
		return "Please review detailed error information and check relevant configuration and files"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var stErr *SubTransError
	if errors.As(err, &stErr) {
		return stErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *SubTransError {
	return NewErrorWithCause(errorType, message, err)
}

// SafeExecute runs fn and turns a panic into an error
func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
