// Package render hands interchange documents to the external video renderer
// and serializes render requests per storyboard.
package render

import (
	"context"
	"errors"
	"fmt"

	"storyboard-backend/internal/export"
)

var ErrRenderInProgress = errors.New("a render is already in progress for this storyboard")

// Result is what a successful render produced.
type Result struct {
	VideoURL string `json:"videoUrl"`
	Logs     string `json:"logs"`
}

// Renderer is the external rendering collaborator. One call per render trigger.
type Renderer interface {
	Render(ctx context.Context, doc *export.Document) (*Result, error)
}

// Error is the single user-facing failure of a render request.
type Error struct {
	Message string
	Logs    string
	Err     error
}

func (e *Error) Error() string {
	return "render failed: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failure(err error, logs string) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Message: err.Error(), Logs: logs, Err: err}
}

func failuref(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
