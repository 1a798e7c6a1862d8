package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"storyboard-backend/internal/export"
)

// HTTPRenderer posts the document to a remote render service that answers
// {success, videoUrl, logs, error}.
type HTTPRenderer struct {
	Endpoint string
	Timeout  time.Duration
}

type httpRenderResponse struct {
	Success  bool   `json:"success"`
	VideoURL string `json:"videoUrl"`
	Logs     string `json:"logs"`
	Error    string `json:"error"`
}

// Render blocks until the remote service answers or the timeout passes.
func (h *HTTPRenderer) Render(ctx context.Context, doc *export.Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure(err, "")
	}

	agent := fiber.Post(h.Endpoint)
	if h.Timeout > 0 {
		agent.Timeout(h.Timeout)
	}
	agent.JSON(doc)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, failure(errors.Join(errs...), "")
	}

	var resp httpRenderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, failuref("renderer answered %d with an unreadable body", code)
	}
	if !resp.Success || code >= fiber.StatusBadRequest {
		msg := resp.Error
		if msg == "" {
			msg = fmt.Sprintf("renderer answered status %d", code)
		}
		return nil, &Error{Message: msg, Logs: resp.Logs}
	}
	if resp.VideoURL == "" {
		return nil, failuref("renderer reported success without a video url")
	}
	return &Result{VideoURL: resp.VideoURL, Logs: resp.Logs}, nil
}
