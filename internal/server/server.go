// Package server implements the request handler (4.H): it orchestrates the
// validator, model resolver, translators, upstream client, and recorders
// for every inbound HTTP request, and owns the mux wiring and the
// /health and POST /v1/messages routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/sashabaranov/go-openai"

	"claude-adapter-go/internal/adapter"
	"claude-adapter-go/internal/anthropic"
	"claude-adapter-go/internal/gatewayerr"
	"claude-adapter-go/internal/modelcatalog"
	"claude-adapter-go/internal/recorder"
	"claude-adapter-go/internal/tools"
	"claude-adapter-go/internal/translate"
	"claude-adapter-go/internal/upstream"
	"claude-adapter-go/internal/validate"
)

// Server owns the configured upstream client, recorder, and logger for the
// lifetime of the process. It holds no per-request mutable state (5.1).
type Server struct {
	cfg      *adapter.Config
	upstream *upstream.Client
	rec      *recorder.Recorder
	log      logr.Logger
}

// New builds a Server bound to cfg. The upstream client and recorder are
// constructed once and reused across every request.
func New(cfg *adapter.Config, log logr.Logger) *Server {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Server{
		cfg:      cfg,
		upstream: upstream.New(cfg.Provider.BaseURL, cfg.Provider.APIKey, timeout),
		rec:      recorder.New(cfg.DataDir, log),
		log:      log,
	}
}

// Router builds the mux.Router exposing /health and POST /v1/messages.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(s.log))
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/messages", s.handleMessages).Methods(http.MethodPost)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMessages implements 4.H end to end: assign a request id, validate,
// resolve the model, translate, call upstream, translate the response
// back, and record usage/error. Recorder failures are logged and never fail
// the request; the handler installs no panic recovery of its own.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	requestID := tools.GenerateID("msg_")
	w.Header().Set("X-Request-Id", requestID)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, requestID, "", false, gatewayerr.New(http.StatusBadRequest, gatewayerr.TypeInvalidRequest, "failed to read request body"))
		return
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		s.writeError(w, requestID, "", false, gatewayerr.New(http.StatusBadRequest, gatewayerr.TypeInvalidRequest, "request body is not valid JSON"))
		return
	}

	if fieldErrs := validate.Validate(body); len(fieldErrs) > 0 {
		s.writeError(w, requestID, "", false, gatewayerr.Validation(fieldErrs))
		return
	}

	var req anthropic.MessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, requestID, "", false, gatewayerr.New(http.StatusBadRequest, gatewayerr.TypeInvalidRequest, "request body does not match the expected shape"))
		return
	}

	concreteModel := modelcatalog.Resolve(req.Model, s.cfg.Provider.Models)
	toolFormat := translate.ToolFormatNative
	if s.cfg.Provider.ToolFormat == string(translate.ToolFormatXML) {
		toolFormat = translate.ToolFormatXML
	}

	chatReq := translate.Request(&req, translate.Options{
		ConcreteModel:    concreteModel,
		ToolFormat:       toolFormat,
		MaxContextWindow: s.cfg.Provider.MaxContextWindow,
	})

	if req.Stream {
		s.handleStreaming(w, r.Context(), requestID, req.Model, chatReq)
		return
	}
	s.handleNonStreaming(w, r.Context(), requestID, req.Model, chatReq)
}

func (s *Server) handleNonStreaming(w http.ResponseWriter, ctx context.Context, requestID, requestedModel string, chatReq openai.ChatCompletionRequest) {
	resp, err := s.upstream.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		gwErr := upstream.MapError(err)
		s.writeError(w, requestID, requestedModel, false, gwErr)
		return
	}

	out := translate.Response(resp, requestedModel)

	cached := out.Usage.CacheReadInputTokens
	s.rec.RecordUsage(recorder.UsageRecord{
		Provider:          s.cfg.Provider.Name,
		ModelName:         requestedModel,
		Model:             chatReq.Model,
		InputTokens:       out.Usage.InputTokens,
		OutputTokens:      out.Usage.OutputTokens,
		CachedInputTokens: cached,
		Streaming:         false,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleStreaming(w http.ResponseWriter, ctx context.Context, requestID, requestedModel string, chatReq openai.ChatCompletionRequest) {
	body, err := s.upstream.StreamChatCompletion(ctx, chatReq)
	if err != nil {
		gwErr := upstream.MapError(err)
		s.writeError(w, requestID, requestedModel, true, gwErr)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	var usage *anthropic.Usage
	var streamErr error

	sink := func(eventType string, payload interface{}) error {
		if delta, ok := payload.(anthropic.MessageDeltaEvent); ok {
			u := delta.Usage
			usage = &u
		}
		return writeSSE(w, flusher, eventType, payload)
	}

	streamErr = translate.Stream(body, requestID, requestedModel, sink)

	if usage != nil {
		s.rec.RecordUsage(recorder.UsageRecord{
			Provider:          s.cfg.Provider.Name,
			ModelName:         requestedModel,
			Model:             chatReq.Model,
			InputTokens:       usage.InputTokens,
			OutputTokens:      usage.OutputTokens,
			CachedInputTokens: usage.CacheReadInputTokens,
			Streaming:         true,
		})
	}
	if streamErr != nil && !errors.Is(streamErr, io.EOF) {
		s.log.V(1).Info("streaming client write failed", "request_id", requestID, "error", streamErr.Error())
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

// writeError writes the JSON error envelope (4.H step 7) and records the
// failure, unless the status is in the recorder's skip list.
func (s *Server) writeError(w http.ResponseWriter, requestID, requestedModel string, streaming bool, gwErr *gatewayerr.Error) {
	s.rec.RecordError(recorder.ErrorRecord{
		RequestID: requestID,
		Provider:  s.cfg.Provider.Name,
		ModelName: requestedModel,
		Streaming: streaming,
		Err:       gwErr,
	})

	w.Header().Set("X-Request-Id", requestID)

	body := anthropic.ErrorBody{Type: "error"}
	body.Error.Type = gwErr.Type
	body.Error.Message = gwErr.Message
	respondJSON(w, gwErr.Status, body)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func loggingMiddleware(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info("request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
			)
		})
	}
}
