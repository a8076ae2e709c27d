package wotscript

import (
	"errors"
	"fmt"
	goLog "log"

	"github.com/hashicorp/go-multierror"
)

// Encodes the given uint64 into the buffer out in Big Endian
func encodeUint64Into(x uint64, out []byte) {
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = byte(x)
		x >>= 8
	}
}

// Kind of Error
type ErrorKind int

const (
	// Parameters are out of range or use an unsupported hash function.
	InvalidParams ErrorKind = iota

	// Malformed input: a bad hex string, a message character outside the
	// digit alphabet, a key or witness of the wrong length, ...
	InvalidEncoding

	// The number of digits or keys does not match the instance, or a
	// position does not fit the index encoding.
	DigitWidthMismatch

	// The message and checksum bases differ.
	BaseConfigurationMismatch

	// A digit is not smaller than its base.
	InvalidDigit
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidParams:
		return "invalid parameters"
	case InvalidEncoding:
		return "invalid encoding"
	case DigitWidthMismatch:
		return "digit width mismatch"
	case BaseConfigurationMismatch:
		return "base configuration mismatch"
	case InvalidDigit:
		return "invalid digit"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

type Error interface {
	error
	Kind() ErrorKind // What went wrong
	Inner() error    // Returns the wrapped error, if any
}

type errorImpl struct {
	kind  ErrorKind
	msg   string
	inner error
}

func (err *errorImpl) Kind() ErrorKind { return err.kind }
func (err *errorImpl) Inner() error    { return err.inner }
func (err *errorImpl) Unwrap() error   { return err.inner }

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.inner.Error())
	}
	return err.msg
}

// Formats a new Error
func errorf(kind ErrorKind, format string, a ...interface{}) *errorImpl {
	return &errorImpl{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Formats a new Error that wraps another
func wrapErrorf(kind ErrorKind, err error, format string,
	a ...interface{}) *errorImpl {
	return &errorImpl{kind: kind, msg: fmt.Sprintf(format, a...), inner: err}
}

// Returns whether err is, wraps or (in case of a list of errors returned
// by Params.Validate) contains an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, inner := range merr.Errors {
			if IsKind(inner, kind) {
				return true
			}
		}
		return false
	}
	var ourErr Error
	if errors.As(err, &ourErr) {
		return ourErr.Kind() == kind
	}
	return false
}

type dummyLogger struct{}
type stdlibLogger struct{}

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

type Logger interface {
	Logf(format string, a ...interface{})
}

// Enables logging to log package.  For more flexibility, see SetLogger().
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// Enables logging.  Disable logging by passing nil.
//
// Use EnableLogging if you want to log to the log package.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
