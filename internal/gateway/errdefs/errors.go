package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a gateway error so transport layers can map it to a
// stable response code without inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindAdmissionDenied
	KindNotFound
	KindInvalidSessionData
	KindDuplicateDataFile
	KindSigningProvider
	KindInternal
)

// Error is the domain error carried through the orchestration core.
// Code is the machine-readable identifier exposed to API clients.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Original error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Original))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Original
}

func (k Kind) String() string {
	switch k {
	case KindAdmissionDenied:
		return "ADMISSION_DENIED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidSessionData:
		return "INVALID_SESSION_DATA"
	case KindDuplicateDataFile:
		return "DUPLICATE_DATA_FILE"
	case KindSigningProvider:
		return "SIGNING_PROVIDER"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Stable response codes. The connection limit code predates this service
// rewrite and is kept for client compatibility.
const (
	CodeConnectionLimit    = "CONNECTION_LIMIT_EXCEPTION"
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND_EXCEPTION"
	CodeInvalidSessionData = "INVALID_SESSION_DATA_EXCEPTION"
	CodeDuplicateDataFile  = "DUPLICATE_DATA_FILE_EXCEPTION"
	CodeMobileID           = "MID_EXCEPTION"
	CodeSmartID            = "SMARTID_EXCEPTION"
	CodeRemoteSigning      = "REMOTE_SIGNING_EXCEPTION"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// NewAdmissionDenied creates an admission limit error.
func NewAdmissionDenied(msg string) *Error {
	return &Error{Kind: KindAdmissionDenied, Code: CodeConnectionLimit, Message: msg}
}

// NewNotFound creates a missing resource/session error.
func NewNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeResourceNotFound, Message: msg}
}

// NewInvalidSessionData creates an error for operations that are not valid
// for the current container/session state.
func NewInvalidSessionData(msg string) *Error {
	return &Error{Kind: KindInvalidSessionData, Code: CodeInvalidSessionData, Message: msg}
}

// NewDuplicateDataFile creates a data file name collision error.
func NewDuplicateDataFile(msg string) *Error {
	return &Error{Kind: KindDuplicateDataFile, Code: CodeDuplicateDataFile, Message: msg}
}

// NewSigningProvider wraps a provider-reported failure. Code identifies the
// provider; reason carries the provider's own failure code.
func NewSigningProvider(code, reason string, err error) *Error {
	return &Error{Kind: KindSigningProvider, Code: code, Message: reason, Original: err}
}

// NewInternal wraps an unexpected failure. The message is safe to return to
// clients; the original error is only for server-side logs.
func NewInternal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Original: err}
}

// KindOf extracts the kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf returns the stable response code for err, or CodeInternal when err
// is not a gateway error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
