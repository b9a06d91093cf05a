// Package apperr defines the error classes shared by the store client, the
// resolver, the media pipeline and the command handlers. Every class is a
// plain struct so callers classify failures with errors.As and render them
// as user-facing text at the conversation boundary.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError reports malformed user input: wrong argument count, a
// field that does not parse, an unknown option. Msg is already written for
// the end user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation creates a ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a named entity does not exist in the store.
// Kind is a short Hebrew noun ("מוצר", "קופון") used when rendering.
type NotFoundError struct {
	Kind  string
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Query)
}

// NotFound creates a NotFoundError.
func NotFound(kind, query string) error {
	return &NotFoundError{Kind: kind, Query: query}
}

// RemoteError reports a failed call to the store. Either the transport failed
// after all retries (Transport is true and Err holds the cause) or the store
// answered with a non-2xx Status.
type RemoteError struct {
	Op        string
	Status    int
	Body      string
	Transport bool
	Err       error
}

func (e *RemoteError) Error() string {
	if e.Transport {
		return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, truncate(e.Body, 200))
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying transport failure was a deadline.
func (e *RemoteError) Timeout() bool {
	if !e.Transport || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// Stage identifies the step of the image attach flow that failed.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageUpload Stage = "upload"
	StageUpdate Stage = "update"
	StageVerify Stage = "verify"
)

// AttachmentError reports a media pipeline failure at a specific stage.
type AttachmentError struct {
	Stage     Stage
	ProductID int
	Err       error
}

func (e *AttachmentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("attach image to product %d: %s failed", e.ProductID, e.Stage)
	}
	return fmt.Sprintf("attach image to product %d: %s failed: %v", e.ProductID, e.Stage, e.Err)
}

func (e *AttachmentError) Unwrap() error {
	return e.Err
}

// Attachment creates an AttachmentError.
func Attachment(stage Stage, productID int, err error) error {
	return &AttachmentError{Stage: stage, ProductID: productID, Err: err}
}

// Class names the error class of err, for logs, metrics and the audit log.
func Class(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		ve *ValidationError
		ne *NotFoundError
		ae *AttachmentError
		re *RemoteError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ne):
		return "not_found"
	case errors.As(err, &ae):
		return "attachment"
	case errors.As(err, &re):
		return "remote"
	default:
		return "internal"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
