package core

import (
	"errors"
	"fmt"
)

// DomainError is the single error type of the domain layer.
//
// Design principles:
//   - every domain failure carries a machine-readable Code and the Module
//     that raised it
//   - callers branch on predicates (IsXxx), never on message text
//   - wrapping is supported so transport/storage causes stay inspectable
type DomainError struct {
	Code    string // e.g. "INVALID_QUERY", "INDEX_UNAVAILABLE"
	Module  string // e.g. "query", "index", "catalog", "reranker"
	Message string
	Err     error // optional cause
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Module, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Module, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new domain error without a cause.
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// WrapDomainError creates a new domain error around a cause.
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message, Err: err}
}

// AsDomainError extracts a DomainError from err's chain, or returns nil.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// Error codes.
const (
	ErrorCodeInvalidQuery           = "INVALID_QUERY"           // query empty, blank, or over length
	ErrorCodeCatalogUnavailable     = "CATALOG_UNAVAILABLE"     // catalog source missing or corrupt
	ErrorCodeIndexUnavailable       = "INDEX_UNAVAILABLE"       // vector index not loaded / unusable
	ErrorCodeRerankerUnavailable    = "RERANKER_UNAVAILABLE"    // external scorer failed; never crosses the service boundary
	ErrorCodeInsufficientCandidates = "INSUFFICIENT_CANDIDATES" // fewer results than the minimum; warning, not failure
	ErrorCodeNotFound               = "NOT_FOUND"
	ErrorCodeNotSupported           = "NOT_SUPPORTED"
	ErrorCodeInvalidInput           = "INVALID_INPUT"
	ErrorCodeInternalError          = "INTERNAL_ERROR"
)

// Module names.
const (
	ModuleQuery    = "query"
	ModuleCatalog  = "catalog"
	ModuleIndex    = "index"
	ModuleReranker = "reranker"
	ModuleBalance  = "balance"
	ModuleStore    = "store"
	ModulePipeline = "pipeline"
)

// NewInvalidQueryError reports an unanswerable query. Request-fatal but a
// client error: the caller sent something the analyzer rejects.
func NewInvalidQueryError(message string) *DomainError {
	return NewDomainError(ModuleQuery, ErrorCodeInvalidQuery, message)
}

// NewCatalogUnavailableError reports that the catalog cannot be served.
func NewCatalogUnavailableError(message string, err error) *DomainError {
	return WrapDomainError(ModuleCatalog, ErrorCodeCatalogUnavailable, message, err)
}

// NewIndexUnavailableError reports that vector retrieval cannot run.
func NewIndexUnavailableError(message string, err error) *DomainError {
	return WrapDomainError(ModuleIndex, ErrorCodeIndexUnavailable, message, err)
}

// NewRerankerUnavailableError reports an external scorer failure. Internal
// only: the pipeline downgrades it to a warning and proceeds without the
// external scores.
func NewRerankerUnavailableError(message string, err error) *DomainError {
	return WrapDomainError(ModuleReranker, ErrorCodeRerankerUnavailable, message, err)
}

// WarnInsufficientCandidates is carried in Result.Warnings when the pool
// could not satisfy the minimum result count. It is not an error.
const WarnInsufficientCandidates = "insufficient candidates: fewer results than the configured minimum"

// WarnRerankerUnavailable is carried in Result.Warnings when the external
// reranker was requested but did not contribute.
const WarnRerankerUnavailable = "reranker unavailable: results ranked without external scores"

func hasCode(err error, module, code string) bool {
	de := AsDomainError(err)
	return de != nil && de.Module == module && de.Code == code
}

// IsInvalidQuery reports whether err means the query itself was rejected.
func IsInvalidQuery(err error) bool {
	return hasCode(err, ModuleQuery, ErrorCodeInvalidQuery)
}

// IsCatalogUnavailable reports whether err means the catalog could not be
// loaded.
func IsCatalogUnavailable(err error) bool {
	return hasCode(err, ModuleCatalog, ErrorCodeCatalogUnavailable)
}

// IsIndexUnavailable reports whether err means vector retrieval was
// impossible.
func IsIndexUnavailable(err error) bool {
	return hasCode(err, ModuleIndex, ErrorCodeIndexUnavailable)
}

// IsRerankerUnavailable reports whether err came from the external scorer.
func IsRerankerUnavailable(err error) bool {
	return hasCode(err, ModuleReranker, ErrorCodeRerankerUnavailable)
}

// Store errors, shared by every Store implementation.
var (
	// ErrStoreNotFound means the key does not exist.
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "key not found")

	// ErrStoreNotSupported means the backend does not implement the
	// operation.
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "operation not supported")
)

// IsStoreNotFound reports whether err is a store miss.
func IsStoreNotFound(err error) bool {
	return hasCode(err, ModuleStore, ErrorCodeNotFound)
}

// IsStoreNotSupported reports whether err is an unsupported store operation.
func IsStoreNotSupported(err error) bool {
	return hasCode(err, ModuleStore, ErrorCodeNotSupported)
}
