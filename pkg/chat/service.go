// Package chat implements the message pipeline: admission control,
// classification, knowledge-base short-circuit, response caching, request
// deduplication, provider orchestration, and transcript persistence.
package chat

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/bloodplusfight/careline/pkg/admission"
	"github.com/bloodplusfight/careline/pkg/classify"
	"github.com/bloodplusfight/careline/pkg/dedupe"
	"github.com/bloodplusfight/careline/pkg/history"
	"github.com/bloodplusfight/careline/pkg/knowledge"
	"github.com/bloodplusfight/careline/pkg/orchestrator"
	"github.com/bloodplusfight/careline/pkg/providers"
	"github.com/bloodplusfight/careline/pkg/respcache"
	"github.com/bloodplusfight/careline/pkg/telemetry/metrics"
)

// KnowledgeBaseProvider is the provider name carried by curated answers.
const KnowledgeBaseProvider = "knowledge-base"

// Request is one inbound message.
type Request struct {
	// Identifier is the admission identifier (user id or caller address).
	Identifier string

	// Text is the message text.
	Text string

	// EndpointClass selects an endpoint-class admission quota
	// ("webhook", "api"). Empty skips that tier.
	EndpointClass string
}

// Reply is the pipeline's outcome for one message.
type Reply struct {
	// Text is the answer delivered to the user, footers included.
	Text string `json:"text"`

	// Provider names what produced the answer: a backend name,
	// KnowledgeBaseProvider, or the static fallback.
	Provider string `json:"provider"`

	// Confidence estimates answer quality in [0,1].
	Confidence float64 `json:"confidence"`

	// Cached reports whether the answer came from the response cache.
	Cached bool `json:"cached"`

	// Degraded marks the static fallback.
	Degraded bool `json:"degraded"`

	// Intent is the classified healthcare topic.
	Intent classify.Intent `json:"intent"`

	// Language is the detected message language.
	Language string `json:"language"`
}

// Admitter decides whether a request proceeds.
type Admitter interface {
	Admit(ctx context.Context, identifier, endpointClass string) admission.Decision
}

// Responder asks the provider chain for an answer.
type Responder interface {
	Respond(ctx context.Context, messages []providers.Message, language string) (*orchestrator.Answer, error)
}

// Transcript persists conversation turns. *history.Store satisfies it.
type Transcript interface {
	Append(ctx context.Context, identifier, role, text, provider string) (string, error)
}

// Config tunes the pipeline.
type Config struct {
	// CacheTTL is how long generated answers stay cached. Default: 10m.
	CacheTTL time.Duration

	// MinCacheConfidence is the lowest confidence worth caching.
	// Default: 0.8.
	MinCacheConfidence float64

	// ModelLabel is the provider/model dimension of the request
	// fingerprint, normally the primary backend's model identifier.
	ModelLabel string
}

func (c Config) withDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.MinCacheConfidence <= 0 {
		c.MinCacheConfidence = 0.8
	}
	return c
}

// Service runs the pipeline. Construct with New; all collaborators except
// transcript and metrics are required.
type Service struct {
	cfg        Config
	admitter   Admitter
	cache      *respcache.Cache[*orchestrator.Answer]
	group      *dedupe.Group[*orchestrator.Answer]
	responder  Responder
	kb         *knowledge.Base
	transcript Transcript
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates the chat service. transcript, m, and logger may be nil.
func New(
	cfg Config,
	admitter Admitter,
	cache *respcache.Cache[*orchestrator.Answer],
	responder Responder,
	kb *knowledge.Base,
	transcript Transcript,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		cfg:        cfg.withDefaults(),
		admitter:   admitter,
		cache:      cache,
		group:      dedupe.New[*orchestrator.Answer](),
		responder:  responder,
		kb:         kb,
		transcript: transcript,
		metrics:    m,
		logger:     logger,
	}
}

// Handle runs one message through the pipeline.
//
// Order is fixed: admission gates everything, so a banned or rate-limited
// caller never reaches the cache or a provider. Curated topics short-circuit
// before any provider work. Everything else flows through the deduplicator,
// which wraps the cache probe, orchestration, and the conditional cache
// write in one shared computation per fingerprint.
func (s *Service) Handle(ctx context.Context, req Request) (*Reply, error) {
	decision := s.admitter.Admit(ctx, req.Identifier, req.EndpointClass)
	if !decision.Allowed {
		s.recordAdmission(string(decision.Tier), "rejected")
		return nil, &AdmissionRejectedError{
			Reason:     decision.Reason,
			Tier:       decision.Tier,
			RetryAfter: decision.RetryAfter,
		}
	}
	s.recordAdmission(string(decision.Tier), "allowed")

	intent := classify.DetectIntent(req.Text)
	language := classify.DetectLanguage(req.Text)

	s.appendTranscript(ctx, req.Identifier, history.RoleUser, req.Text, "")

	if curated, ok := s.kb.Lookup(intent, language); ok {
		reply := &Reply{
			Text:       s.kb.Decorate(curated, intent, language),
			Provider:   KnowledgeBaseProvider,
			Confidence: 1.0,
			Intent:     intent,
			Language:   language,
		}
		s.appendTranscript(ctx, req.Identifier, history.RoleAssistant, reply.Text, reply.Provider)
		return reply, nil
	}

	fp := respcache.Fingerprint(req.Text, language, s.cfg.ModelLabel)

	var cacheHit bool
	answer, shared, err := s.group.Do(ctx, fp, func(ctx context.Context) (*orchestrator.Answer, error) {
		if cached, ok := s.cache.Get(fp); ok {
			cacheHit = true
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss()
		}

		ans, err := s.responder.Respond(ctx, []providers.Message{
			{Role: "system", Content: knowledge.SystemPrompt(language)},
			{Role: "user", Content: req.Text},
		}, language)
		if err != nil {
			return nil, err
		}

		// Fallback answers are never cached: a degraded reply must not
		// freeze for other users, and low-confidence answers are not
		// worth repeating.
		if !ans.Degraded && ans.Confidence >= s.cfg.MinCacheConfidence {
			s.cache.Put(fp, ans, s.cfg.CacheTTL)
		}
		return ans, nil
	})
	if err != nil {
		return nil, err
	}

	if shared && s.metrics != nil {
		s.metrics.RecordDedupeAttach()
	}
	if answer.Degraded && s.metrics != nil {
		s.metrics.RecordDegraded()
	}
	if answer.Degraded {
		s.logger.Warn("serving degraded answer",
			"identifier", req.Identifier, "language", language)
	}

	// The static fallback is delivered verbatim; generated answers get the
	// disclaimer and topic footers.
	text := answer.Text
	if !answer.Degraded {
		text = s.kb.Decorate(answer.Text, intent, language)
	}

	reply := &Reply{
		Text:       text,
		Provider:   answer.Provider,
		Confidence: answer.Confidence,
		Cached:     cacheHit,
		Degraded:   answer.Degraded,
		Intent:     intent,
		Language:   language,
	}
	s.appendTranscript(ctx, req.Identifier, history.RoleAssistant, reply.Text, reply.Provider)
	return reply, nil
}

func (s *Service) recordAdmission(tier, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAdmission(tier, outcome)
	}
}

func (s *Service) appendTranscript(ctx context.Context, identifier, role, text, provider string) {
	if s.transcript == nil {
		return
	}
	if _, err := s.transcript.Append(ctx, identifier, role, text, provider); err != nil {
		s.logger.Warn("failed to persist transcript turn",
			"identifier", identifier, "role", role, "error", err)
	}
}
