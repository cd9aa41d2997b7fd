// Package recorder writes the append-only daily JSONL usage and error logs
// (4.G): one file per day under the adapter's base directory, one JSON
// object per line, written best-effort so a logging failure never fails
// the request it's describing.
package recorder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"claude-adapter-go/internal/gatewayerr"
)

// skipStatusCodes are user-caused failures that aren't worth recording as
// gateway errors (4.G), mirroring the original SKIP_STATUS_CODES set.
var skipStatusCodes = map[int]bool{401: true, 402: true, 404: true, 429: true}

// Recorder appends usage and error records under baseDir/token_usage and
// baseDir/error_logs respectively.
type Recorder struct {
	baseDir string
	log     logr.Logger
}

// New returns a Recorder rooted at baseDir (typically ~/.claude-adapter).
func New(baseDir string, log logr.Logger) *Recorder {
	return &Recorder{baseDir: baseDir, log: log}
}

// UsageRecord is one token-accounting line (4.G).
type UsageRecord struct {
	Provider           string
	ModelName          string // the name the client requested
	Model              string // the concrete upstream model actually called
	InputTokens        int
	OutputTokens       int
	CachedInputTokens  *int
	Streaming          bool
}

// RecordUsage appends a usage line for a completed request. Never returns
// an error; failures are logged and swallowed.
func (r *Recorder) RecordUsage(rec UsageRecord) {
	line := map[string]interface{}{
		"timestamp":       time.Now().Format(time.RFC3339),
		"provider":        rec.Provider,
		"requested_model": rec.ModelName,
		"concrete_model":  rec.Model,
		"input_tokens":    rec.InputTokens,
		"output_tokens":   rec.OutputTokens,
		"streaming":       rec.Streaming,
	}
	if rec.CachedInputTokens != nil && *rec.CachedInputTokens > 0 {
		line["cached_input_tokens"] = *rec.CachedInputTokens
	}
	r.appendLine(filepath.Join(r.baseDir, "token_usage"), line)
}

// ErrorRecord is one error-log line (4.G).
type ErrorRecord struct {
	RequestID string
	Provider  string
	ModelName string
	Streaming bool
	Err       *gatewayerr.Error
}

// RecordError appends an error line, unless Err's status is in the
// skip list (401/402/404/429 — user-caused, not gateway failures).
func (r *Recorder) RecordError(rec ErrorRecord) {
	if rec.Err == nil || skipStatusCodes[rec.Err.Status] {
		return
	}
	line := map[string]interface{}{
		"timestamp":       time.Now().Format(time.RFC3339),
		"request_id":      rec.RequestID,
		"provider":        rec.Provider,
		"requested_model": rec.ModelName,
		"streaming":       rec.Streaming,
		"error": map[string]interface{}{
			"message": rec.Err.Message,
			"status":  rec.Err.Status,
			"type":    rec.Err.Type,
		},
	}
	r.appendLine(filepath.Join(r.baseDir, "error_logs"), line)
}

func (r *Recorder) appendLine(dir string, line map[string]interface{}) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.log.Error(err, "recorder: creating directory", "dir", dir)
		return
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.log.Error(err, "recorder: opening file", "path", path)
		return
	}
	defer f.Close()

	encoded, err := json.Marshal(line)
	if err != nil {
		r.log.Error(err, "recorder: encoding record")
		return
	}
	if _, err := f.Write(append(encoded, '\n')); err != nil {
		r.log.Error(err, "recorder: writing record", "path", path)
	}
}
