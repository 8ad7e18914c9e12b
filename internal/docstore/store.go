// Package docstore provides a key-path document store: JSON documents addressed by
// "/"-separated paths, read individually or listed by prefix.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates that no document exists at the requested path.
var ErrNotFound = errors.New("docstore: not found")

// Document is one stored value and its location.
type Document struct {
	Path             Path
	Value            json.RawMessage
	UpdatedAtSeconds int64
}

// Store reads and writes documents by key path.
type Store interface {
	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path Path) (Document, error)
	// Set creates or replaces the document at path.
	Set(ctx context.Context, path Path, value json.RawMessage) error
	// Delete removes the document at path. Deleting a missing document is not an error.
	Delete(ctx context.Context, path Path) error
	// List returns every document strictly below prefix, ordered by path.
	List(ctx context.Context, prefix Path) ([]Document, error)
}

// ServiceError carries a stable code of the form "docstore.<operation>.<reason>".
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opStoreNew = "docstore.new"
	opGet      = "docstore.get"
	opSet      = "docstore.set"
	opDelete   = "docstore.delete"
	opList     = "docstore.list"

	reasonMissingDatabase = "missing_database"
	reasonInvalidPath     = "invalid_path"
	reasonInvalidValue    = "invalid_value"
	reasonNotFound        = "not_found"
	reasonQueryFailed     = "query_failed"
	reasonWriteFailed     = "write_failed"
	reasonInjectedFailure = "injected_failure"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ErrorCode extracts the ServiceError code from err, or "" when there is none.
func ErrorCode(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code()
	}
	return ""
}

func validateValue(value json.RawMessage) error {
	if len(value) == 0 {
		return errors.New("empty document")
	}
	if !json.Valid(value) {
		return errors.New("document is not valid json")
	}
	return nil
}
