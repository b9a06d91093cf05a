package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgard/wooadminbot/internal/apperr"
)

func TestClass(t *testing.T) {
	t.Parallel()

	remote := &apperr.RemoteError{Op: "GET products", Status: 500}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"validation", apperr.Validation("bad %s", "input"), "validation"},
		{"not found", apperr.NotFound("מוצר", "x"), "not_found"},
		{"remote", remote, "remote"},
		{"wrapped remote", fmt.Errorf("list: %w", remote), "remote"},
		{"attachment wins over wrapped remote", apperr.Attachment(apperr.StageUpload, 7, remote), "attachment"},
		{"plain", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, apperr.Class(tt.err))
		})
	}
}

func TestRemoteErrorTimeout(t *testing.T) {
	t.Parallel()

	deadline := &apperr.RemoteError{Op: "GET", Transport: true, Err: fmt.Errorf("do: %w", context.DeadlineExceeded)}
	assert.True(t, deadline.Timeout())

	refused := &apperr.RemoteError{Op: "GET", Transport: true, Err: errors.New("connection refused")}
	assert.False(t, refused.Timeout())

	status := &apperr.RemoteError{Op: "GET", Status: 504}
	assert.False(t, status.Timeout())
}

func TestAttachmentErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := apperr.Attachment(apperr.StageUpdate, 12, cause)

	var ae *apperr.AttachmentError
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.StageUpdate, ae.Stage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "product 12")
}
