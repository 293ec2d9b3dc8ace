package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CustomError carries a message, structured arguments and an optional cause.
type CustomError struct {
	message string
	args    map[string]interface{}
	wrapped error
}

func New(message string) *CustomError {
	return &CustomError{
		message: message,
		args:    make(map[string]interface{}),
	}
}

func Newf(format string, a ...interface{}) *CustomError {
	return New(fmt.Sprintf(format, a...))
}

func (e *CustomError) Error() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

// Arg attaches a key/value pair that is rendered with the message.
func (e *CustomError) Arg(key string, value interface{}) *CustomError {
	e.args[key] = value
	return e
}

func (e *CustomError) Wrap(err error) *CustomError {
	if err != nil {
		e.wrapped = err
	}
	return e
}

func (e *CustomError) Unwrap() error {
	return e.wrapped
}

// write renders "{msg: <message>, args: [k=v ...], wrappedError: {...}}".
func (e *CustomError) write(b *strings.Builder) {
	b.WriteString("{msg: ")
	b.WriteString(e.message)

	if len(e.args) > 0 {
		keys := make([]string, 0, len(e.args))
		for k := range e.args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(", args: [")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%s=%v", k, e.args[k])
		}
		b.WriteByte(']')
	}

	if e.wrapped != nil {
		b.WriteString(", wrappedError: ")
		var inner *CustomError
		if errors.As(e.wrapped, &inner) && inner == e.wrapped {
			inner.write(b)
		} else {
			fmt.Fprintf(b, "{%v}", e.wrapped.Error())
		}
	}

	b.WriteByte('}')
}
