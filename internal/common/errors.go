package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures so callers can map them to a response without
// inspecting message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindUpstreamFetch
	KindParse
	KindRendering
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstreamFetch:
		return "upstream_fetch"
	case KindParse:
		return "parse"
	case KindRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Error carries a kind plus the context (symbol, file, field) a failure relates to.
type Error struct {
	Kind   ErrorKind
	Op     string
	Symbol string
	File   string
	Field  string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if e.Msg != "" {
		sb.WriteString(e.Msg)
	} else {
		sb.WriteString(e.Kind.String())
	}

	var ctx []string
	if e.Symbol != "" {
		ctx = append(ctx, "symbol="+e.Symbol)
	}
	if e.File != "" {
		ctx = append(ctx, "file="+e.File)
	}
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if len(ctx) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(ctx, ", "))
		sb.WriteString(")")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ValidationError reports a malformed or missing request parameter.
func ValidationError(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports absent data.
func NotFoundError(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a market-data provider failure.
func UpstreamError(op, symbol string, err error) *Error {
	return &Error{Kind: KindUpstreamFetch, Op: op, Symbol: symbol, Msg: "upstream fetch failed", Err: err}
}

// ParseError reports a file that exists but could not be read as expected.
func ParseError(file string, err error) *Error {
	return &Error{Kind: KindParse, Op: "read fundamentals", File: file, Msg: "failed to read file " + file, Err: err}
}

// RenderingError wraps a chart rendering failure.
func RenderingError(op string, err error) *Error {
	return &Error{Kind: KindRendering, Op: op, Msg: "rendering failed", Err: err}
}
