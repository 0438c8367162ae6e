package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/bloodplusfight/careline/pkg/admission"
	"github.com/bloodplusfight/careline/pkg/chat"
	"github.com/bloodplusfight/careline/pkg/knowledge"
	"github.com/bloodplusfight/careline/pkg/line"
)

// maxBodyBytes caps request bodies on the webhook and chat endpoints.
const maxBodyBytes = 1 << 20

type handlers struct {
	chat          ChatHandler
	replier       Replier
	channelSecret string
	ready         func() bool
	logger        *slog.Logger
}

// chatRequest is the JSON API request body.
type chatRequest struct {
	// UserID identifies the caller for rate limiting and history. Optional;
	// the remote address is used when absent.
	UserID string `json:"user_id"`

	// Text is the message to answer.
	Text string `json:"text"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retry_after_seconds,omitempty"`
}

// handleChat serves the JSON chat API.
func (h *handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	identifier := admission.ResolveIdentifier(req.UserID, r.RemoteAddr)
	reply, err := h.chat.Handle(r.Context(), chat.Request{
		Identifier:    identifier,
		Text:          req.Text,
		EndpointClass: "api",
	})
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// writeChatError maps pipeline errors to HTTP statuses. Bans are 403,
// rate limits 429 with a Retry-After header, everything else a generic 502.
func (h *handlers) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *chat.AdmissionRejectedError
	if errors.As(err, &rejected) {
		seconds := int64(math.Ceil(rejected.RetryAfter.Seconds()))
		if rejected.Reason == admission.ReasonBanned {
			writeJSON(w, http.StatusForbidden, errorResponse{
				Error:      "access temporarily suspended",
				RetryAfter: seconds,
			})
			return
		}
		w.Header().Set("Retry-After", durationToSeconds(rejected.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:      "rate limit exceeded",
			RetryAfter: seconds,
		})
		return
	}

	if errors.Is(err, r.Context().Err()) && r.Context().Err() != nil {
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})
		return
	}

	h.logger.ErrorContext(r.Context(), "chat request failed", "error", err)
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: "unable to answer right now"})
}

// handleWebhook serves LINE webhook deliveries. It verifies the channel
// signature, answers text messages through the pipeline, and greets new
// followers. LINE expects a prompt 200; per-event failures are logged, not
// surfaced.
func (h *handlers) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unable to read body"})
		return
	}

	if h.channelSecret != "" {
		signature := r.Header.Get(line.SignatureHeader)
		if !line.VerifySignature(h.channelSecret, body, signature) {
			h.logger.WarnContext(r.Context(), "webhook signature verification failed",
				"remote_addr", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
			return
		}
	}

	webhook, err := line.ParseWebhook(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid webhook payload"})
		return
	}

	for _, event := range webhook.Events {
		h.handleEvent(r, event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *handlers) handleEvent(r *http.Request, event line.Event) {
	switch {
	case event.IsTextMessage():
		reply, err := h.chat.Handle(r.Context(), chat.Request{
			Identifier:    event.Source.UserID,
			Text:          event.Message.Text,
			EndpointClass: "webhook",
		})
		if err != nil {
			var rejected *chat.AdmissionRejectedError
			if errors.As(err, &rejected) {
				h.logger.InfoContext(r.Context(), "webhook message rejected",
					"user_id", event.Source.UserID,
					"reason", rejected.Reason,
					"tier", rejected.Tier)
				return
			}
			h.logger.ErrorContext(r.Context(), "webhook message failed",
				"user_id", event.Source.UserID, "error", err)
			return
		}
		h.reply(r, event.ReplyToken, reply.Text)

	case event.Type == "follow":
		h.reply(r, event.ReplyToken, knowledge.Welcome())

	default:
		// Stickers, images, unfollows and the rest are acknowledged silently.
	}
}

func (h *handlers) reply(r *http.Request, replyToken, text string) {
	if h.replier == nil || replyToken == "" {
		return
	}
	if err := h.replier.Reply(r.Context(), replyToken, text); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to send reply", "error", err)
	}
}

// handleHealth reports liveness.
func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports readiness to take traffic.
func (h *handlers) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func durationToSeconds(d time.Duration) string {
	seconds := int64(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10)
}
