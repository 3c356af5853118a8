package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the pipeline stage that produced it.
type Kind int

const (
	KindUnexpected Kind = iota
	KindConfig
	KindFetch
	KindTranslation
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindFetch:
		return "fetch"
	case KindTranslation:
		return "translation"
	case KindDelivery:
		return "delivery"
	default:
		return "unexpected"
	}
}

// Sentinels for errors.Is matching against a Kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("fetch error")
	ErrTranslation   = errors.New("translation error")
	ErrDelivery      = errors.New("delivery error")
	ErrUnexpected    = errors.New("unexpected error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfiguration
	case KindFetch:
		return ErrFetch
	case KindTranslation:
		return ErrTranslation
	case KindDelivery:
		return ErrDelivery
	default:
		return ErrUnexpected
	}
}

// Error is a classified failure. Op names the operation that failed
// (e.g. "GET /api/share/", "sendMessage").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind.sentinel(), e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind.sentinel(), e.Op)
	default:
		return e.Kind.sentinel().Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, errs.ErrFetch) match any *Error of that kind.
func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Config(err error) *Error { return New(KindConfig, "", err) }

func Fetch(op string, err error) *Error { return New(KindFetch, op, err) }

func Translation(op string, err error) *Error { return New(KindTranslation, op, err) }

func Delivery(op string, err error) *Error { return New(KindDelivery, op, err) }

func Unexpected(op string, err error) *Error { return New(KindUnexpected, op, err) }

// KindOf returns the kind of the outermost *Error in err's chain.
// Errors that were never classified are KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Process exit codes.
const (
	ExitOK        = 0
	ExitRunFailed = 1
	ExitBadConfig = 2
)

// ExitCode maps a pipeline outcome to a process exit status. Translation and
// delivery failures are recovered inside the publisher and never reach here
// in practice; they map to ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindConfig:
		return ExitBadConfig
	case KindTranslation, KindDelivery:
		return ExitOK
	default:
		return ExitRunFailed
	}
}
