package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"storyboard-backend/internal/export"
)

// ProcessRenderer runs the render script as a child process:
//
//	<python> <script> --input <document.json> --output <video>
type ProcessRenderer struct {
	Python   string
	Script   string
	WorkDir  string
	Output   string
	VideoURL string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Render writes doc to a temp file and waits for the script to finish.
func (p *ProcessRenderer) Render(ctx context.Context, doc *export.Document) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := doc.Marshal()
	if err != nil {
		return nil, failure(fmt.Errorf("failed to encode document: %w", err), "")
	}

	f, err := os.CreateTemp(p.WorkDir, "render-data-*.json")
	if err != nil {
		return nil, failure(fmt.Errorf("failed to create temp file: %w", err), "")
	}
	inputPath := f.Name()
	defer os.Remove(inputPath)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, failure(fmt.Errorf("failed to write temp file: %w", err), "")
	}
	if err := f.Close(); err != nil {
		return nil, failure(fmt.Errorf("failed to close temp file: %w", err), "")
	}

	if dir := filepath.Dir(p.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, failure(fmt.Errorf("failed to create output directory: %w", err), "")
		}
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Python, p.Script, "--input", inputPath, "--output", p.Output)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("starting render process",
		zap.String("script", p.Script),
		zap.String("input", inputPath),
		zap.String("output", p.Output))

	start := time.Now()
	if err := cmd.Run(); err != nil {
		logger.Error("render process failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()),
			zap.Duration("elapsed", time.Since(start)))
		msg := err.Error()
		if s := bytes.TrimSpace(stderr.Bytes()); len(s) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return nil, &Error{Message: msg, Logs: stdout.String(), Err: err}
	}
	if stderr.Len() > 0 {
		logger.Warn("render process wrote to stderr", zap.String("stderr", stderr.String()))
	}

	logger.Info("render process finished", zap.Duration("elapsed", time.Since(start)))
	return &Result{VideoURL: p.VideoURL, Logs: stdout.String()}, nil
}
