package cosmos

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Sentinel errors returned by every operation in this package. Callers test
// for them with errors.Is; the concrete value is always an *Error carrying
// the operation name and the remote status code, when there was one.
var (
	// ErrAuth is returned when the credential is missing or rejected (401/403).
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork is returned when the service could not be reached.
	ErrNetwork = errors.New("network failure")

	// ErrNotFound is returned when a database, container or item is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for 409 conflicts and 412 precondition failures.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed input, whether rejected
	// locally or by the service with a 400.
	ErrValidation = errors.New("validation failed")

	// ErrQuerySyntax is returned when the service rejects a query.
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrVectorIndexImmutable is returned when an index policy update would
	// change the vector indexes of an existing container.
	ErrVectorIndexImmutable = errors.New("vector indexes cannot be changed after container creation")

	// ErrService covers throttling, timeouts and 5xx responses.
	ErrService = errors.New("service error")

	// ErrCanceled marks bulk items that were never sent because the
	// caller's context was canceled, and point operations aborted the same way.
	ErrCanceled = errors.New("operation canceled")

	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("client closed")
)

// ErrorKind classifies an *Error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindNetwork
	KindNotFound
	KindConflict
	KindValidation
	KindQuerySyntax
	KindVectorIndexImmutable
	KindService
	KindCanceled
	KindClosed
)

var kindSentinels = map[ErrorKind]error{
	KindAuth:                 ErrAuth,
	KindNetwork:              ErrNetwork,
	KindNotFound:             ErrNotFound,
	KindConflict:             ErrConflict,
	KindValidation:           ErrValidation,
	KindQuerySyntax:          ErrQuerySyntax,
	KindVectorIndexImmutable: ErrVectorIndexImmutable,
	KindService:              ErrService,
	KindCanceled:             ErrCanceled,
	KindClosed:               ErrClosed,
}

func (k ErrorKind) String() string {
	if s, ok := kindSentinels[k]; ok {
		return s.Error()
	}
	return "unknown error"
}

// Error is the concrete error type returned by this package.
type Error struct {
	// Kind selects the sentinel this error matches.
	Kind ErrorKind
	// Op is the operation that failed, e.g. "upsert".
	Op string
	// StatusCode is the HTTP status returned by the service, or 0.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("cosmos")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

func newError(kind ErrorKind, op string, status int, err error) *Error {
	return &Error{Kind: kind, Op: op, StatusCode: status, Err: err}
}

func validationError(op, format string, args ...interface{}) *Error {
	return newError(KindValidation, op, 0, fmt.Errorf(format, args...))
}

// ResponseError is the protocol-level failure a Transport returns when the
// service answered with a non-success status.
type ResponseError struct {
	StatusCode int
	// Code is the service error code, e.g. "NotFound" or "TooManyRequests".
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("status %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// StatusOf returns the remote status code carried by err, or 0.
func StatusOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) && ce.StatusCode != 0 {
		return ce.StatusCode
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// TranslateError maps a transport failure into an *Error for op.
//
// Status codes map as follows: 401/403 to ErrAuth, 404 to ErrNotFound,
// 409/412 to ErrConflict, 400 to ErrValidation (ErrQuerySyntax for queries),
// 408/429/449/5xx to ErrService. Network failures become ErrNetwork, deadline
// expiry ErrService and cancellation ErrCanceled. Errors that are already an
// *Error pass through unchanged.
func TranslateError(op string, err error) error {
	if err == nil {
		return nil
	}
	return translateError(op, err)
}

func translateError(op string, err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var re *ResponseError
	if errors.As(err, &re) {
		return newError(kindForStatus(op, re.StatusCode), op, re.StatusCode, err)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return newError(KindCanceled, op, 0, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindService, op, http.StatusRequestTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return newError(KindService, op, http.StatusRequestTimeout, err)
		}
		return newError(KindNetwork, op, 0, err)
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
			syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.EPIPE:
			return newError(KindNetwork, op, 0, err)
		case syscall.ETIMEDOUT:
			return newError(KindService, op, http.StatusRequestTimeout, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "network is unreachable"):
		return newError(KindNetwork, op, 0, err)
	case strings.Contains(msg, "tls"), strings.Contains(msg, "certificate"):
		return newError(KindNetwork, op, 0, err)
	}

	return newError(KindService, op, 0, err)
}

func kindForStatus(op string, status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict, status == http.StatusPreconditionFailed:
		return KindConflict
	case status == http.StatusBadRequest:
		if op == opQuery || op == opCount {
			return KindQuerySyntax
		}
		return KindValidation
	case status == http.StatusRequestEntityTooLarge:
		return KindValidation
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status == statusRetryWith,
		status >= 500:
		return KindService
	default:
		return KindUnknown
	}
}

// statusRetryWith is returned by the service when a concurrent update
// conflicted with the request and it may simply be resent.
const statusRetryWith = 449

// ErrorCategory groups error kinds for handling decisions.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryAuthentication
	CategoryNetwork
	CategoryResource
	CategoryInput
	CategoryService
	CategoryCanceled
)

// GetErrorCategory returns the category of err.
func GetErrorCategory(err error) ErrorCategory {
	switch {
	case errors.Is(err, ErrAuth):
		return CategoryAuthentication
	case errors.Is(err, ErrNetwork):
		return CategoryNetwork
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return CategoryResource
	case errors.Is(err, ErrValidation), errors.Is(err, ErrQuerySyntax), errors.Is(err, ErrVectorIndexImmutable):
		return CategoryInput
	case errors.Is(err, ErrService):
		return CategoryService
	case errors.Is(err, ErrCanceled), errors.Is(err, ErrClosed):
		return CategoryCanceled
	default:
		return CategoryUnknown
	}
}

// IsRetryableError reports whether resending the same request may succeed.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrService) || errors.Is(err, ErrNetwork)
}

// IsTemporaryError reports whether err is transient. A 412 precondition
// failure is temporary in the sense that a re-read and retry may succeed.
func IsTemporaryError(err error) bool {
	return IsRetryableError(err) || StatusOf(err) == http.StatusPreconditionFailed
}

// IsPermanentError reports whether err will not go away on its own.
func IsPermanentError(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryAuthentication, CategoryInput:
		return true
	default:
		return false
	}
}

// isSafeToRetryNonIdempotent reports whether the service guarantees the
// rejected request had no effect.
func isSafeToRetryNonIdempotent(err error) bool {
	switch StatusOf(err) {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, statusRetryWith, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

// Outcome summarises the effect of an operation or bulk run.
type Outcome int

const (
	// NotAttempted means nothing was sent.
	NotAttempted Outcome = iota
	// Rejected means every attempted request failed.
	Rejected
	// PartialSuccess means some items succeeded and some did not.
	PartialSuccess
	// Succeeded means every item succeeded.
	Succeeded
)

func (o Outcome) String() string {
	switch o {
	case NotAttempted:
		return "not_attempted"
	case Rejected:
		return "rejected"
	case PartialSuccess:
		return "partial_success"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// OutcomeOf classifies the error of a single operation. Failures detected
// before anything was sent count as NotAttempted.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Succeeded
	case errors.Is(err, ErrCanceled), errors.Is(err, ErrClosed), errors.Is(err, ErrVectorIndexImmutable):
		return NotAttempted
	case errors.Is(err, ErrValidation) && StatusOf(err) == 0:
		return NotAttempted
	case errors.Is(err, ErrAuth) && StatusOf(err) == 0:
		// Missing credentials are caught before any request is built.
		return NotAttempted
	default:
		return Rejected
	}
}
