package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeSchemaIncomplete  ErrorType = "SCHEMA_INCOMPLETE"
	ErrTypeEmptyResult       ErrorType = "EMPTY_RESULT"
	ErrTypeMalformedField    ErrorType = "MALFORMED_FIELD"
	ErrTypeInvalidInput      ErrorType = "INVALID_INPUT"
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeInternal          ErrorType = "INTERNAL"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// Is reports whether any error in err's chain is a DomainError of the given type.
func Is(err error, errType ErrorType) bool {
	var domainErr *DomainError
	for err != nil {
		if !stderrors.As(err, &domainErr) {
			return false
		}
		if domainErr.Type == errType {
			return true
		}
		err = domainErr.Err
	}
	return false
}

func SourceUnavailable(message string, err error) *DomainError {
	return New(ErrTypeSourceUnavailable, message, err)
}

func SchemaIncomplete(message string, err error) *DomainError {
	return New(ErrTypeSchemaIncomplete, message, err)
}

func EmptyResult(message string, err error) *DomainError {
	return New(ErrTypeEmptyResult, message, err)
}

func MalformedField(message string, err error) *DomainError {
	return New(ErrTypeMalformedField, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}
