package db

import "fmt"

// ErrorKind is the closed taxonomy of backend error kinds spec.md §7
// defines. Adapters switch on Kind, not on the wrapped error, to decide
// how to respond.
type ErrorKind int

const (
	// KindInternal covers lock poisoning, pool failure, and unexpected
	// driver errors. Reported to the error-tracking sink.
	KindInternal ErrorKind = iota
	// KindCollectionNotFound means the requested collection is absent
	// for this user.
	KindCollectionNotFound
	// KindBsoNotFound means the requested BSO is absent.
	KindBsoNotFound
	// KindBatchNotFound means the batch id is invalid, unknown, or
	// expired.
	KindBatchNotFound
	// KindBatchTooLarge means a commit exceeded the configured
	// max_total_records/max_total_bytes ceiling (spec.md §9 Open
	// Question, resolved in SPEC_FULL.md §4.5).
	KindBatchTooLarge
	// KindConflict means a write lost a race to a concurrent writer.
	KindConflict
	// KindQuota means the user is over their configured quota.
	KindQuota
	// KindIntegrity means a precondition (etag/timestamp) check failed.
	KindIntegrity
)

func (k ErrorKind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindCollectionNotFound:
		return "collection_not_found"
	case KindBsoNotFound:
		return "bso_not_found"
	case KindBatchNotFound:
		return "batch_not_found"
	case KindBatchTooLarge:
		return "batch_too_large"
	case KindConflict:
		return "conflict"
	case KindQuota:
		return "quota"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error is the error type every backend operation returns. Kind is
// always set; Err carries the underlying cause when there is one (a
// driver error, a bbolt error, etc).
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("db: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err (which may be nil) under the given kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Internalf builds a KindInternal error from a format string.
func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err carries the given kind, so callers can write
// `errors.Is`-style checks without a type assertion:
//
//	if db.Is(err, db.KindCollectionNotFound) { ... }
func Is(err error, kind ErrorKind) bool {
	var dbErr *Error
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		dbErr = e
	} else if u, ok := err.(interface{ Unwrap() error }); ok {
		return Is(u.Unwrap(), kind)
	} else {
		return false
	}
	return dbErr.Kind == kind
}
