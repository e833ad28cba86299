// Package errors classifies failures by where they happen in a load: a malformed API
// record, an unreachable upstream, the database, or bad usage of the tools.
package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind tells callers how to react to an Error
type Kind string

const (
	// KindMalformed marks an API record that cannot be turned into a model; the record is skipped
	KindMalformed Kind = "malformed record"
	// KindUpstream marks hh.ru, Supabase or database endpoints that failed to answer
	KindUpstream Kind = "upstream"
	// KindStorage marks a statement that failed against the store
	KindStorage Kind = "storage"
	// KindNotFound marks a lookup that matched no row
	KindNotFound Kind = "not found"
	// KindUsage marks bad flags, URLs or configuration
	KindUsage Kind = "usage"
)

// Error is a classified failure of operation Op
type Error struct {
	Kind Kind
	Op   string
	Err  error
	// Status is the HTTP status an upstream answered with, 0 if it did not answer
	Status int

	stack []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured where the failure was first classified
func (e *Error) StackTrace() []byte {
	return e.stack
}

func newError(kind Kind, op string, err error) *Error {
	var stack []byte
	var inner *Error
	var traced *goerrors.Error
	switch {
	case stderrors.As(err, &inner):
		stack = inner.stack
	case stderrors.As(err, &traced):
		stack = traced.Stack()
	default:
		stack = goerrors.Wrap(op, 2).Stack()
	}
	return &Error{Kind: kind, Op: op, Err: err, stack: stack}
}

func Malformed(op string, err error) *Error {
	return newError(KindMalformed, op, err)
}

func Upstream(op string, err error) *Error {
	return newError(KindUpstream, op, err)
}

// UpstreamStatus reports an upstream that answered with a non-2xx status
func UpstreamStatus(op string, status int, body string) *Error {
	e := newError(KindUpstream, fmt.Sprintf("%s returned status %d", op, status), nil)
	if body != "" {
		e.Err = stderrors.New(body)
	}
	e.Status = status
	return e
}

func Storage(op string, err error) *Error {
	return newError(KindStorage, op, err)
}

func NotFound(op string, err error) *Error {
	return newError(KindNotFound, op, err)
}

func Usage(op string, err error) *Error {
	return newError(KindUsage, op, err)
}

// KindOf returns the kind of the outermost Error in err's chain, or "" for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err's chain, or 0
func StatusOf(err error) int {
	var e *Error
	for stderrors.As(err, &e) {
		if e.Status != 0 {
			return e.Status
		}
		err = e.Err
	}
	return 0
}

// Stack returns the captured stack of err's chain, or nil
func Stack(err error) []byte {
	var e *Error
	if stderrors.As(err, &e) {
		return e.stack
	}
	return nil
}
