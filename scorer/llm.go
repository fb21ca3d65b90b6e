package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

const (
	defaultLLMModel        = "gpt-4o-mini"
	defaultFailureTrip     = 3
	defaultBreakerCooldown = 30 * time.Second

	// maxDocRunes caps how much of a description goes into the prompt.
	maxDocRunes = 200
)

// LLMConfig configures the chat-completion scorer. Any OpenAI-compatible
// endpoint works via BaseURL.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	Temperature float32

	// RequestsPerSecond throttles outbound calls. Zero disables the limiter.
	RequestsPerSecond float64

	// FailureThreshold is how many consecutive failures open the breaker.
	FailureThreshold uint32

	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration

	Logger zerolog.Logger
}

// LLM grades candidates with one chat completion per request. The model is
// asked for a JSON map of assessment id to relevance in [0,1].
//
// A circuit breaker keeps a dead upstream from slowing every request: after
// FailureThreshold consecutive failures calls fail fast until the cooldown
// passes. All failures surface as RerankerUnavailableError, which the
// rerank stage treats as a soft skip.
type LLM struct {
	client  *openai.Client
	model   string
	temp    float32
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[map[string]float64]
	logger  zerolog.Logger
}

func NewLLM(cfg LLMConfig) (*LLM, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, core.NewDomainError(core.ModuleReranker, core.ErrorCodeInvalidInput,
			"llm scorer needs an api key or a base url")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultLLMModel
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	trip := cfg.FailureThreshold
	if trip == 0 {
		trip = defaultFailureTrip
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}
	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker[map[string]float64](gobreaker.Settings{
		Name:    "scorer.llm",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("scorer breaker state change")
		},
	})

	return &LLM{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		temp:    cfg.Temperature,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}, nil
}

func (s *LLM) Name() string { return "scorer.llm" }

func (s *LLM) Score(ctx context.Context, query string, candidates []*core.Candidate) (map[string]float64, error) {
	if len(candidates) == 0 {
		return map[string]float64{}, nil
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, core.NewRerankerUnavailableError("rate limit wait", err)
		}
	}

	scores, err := s.breaker.Execute(func() (map[string]float64, error) {
		return s.scoreOnce(ctx, query, candidates)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, core.NewRerankerUnavailableError("circuit breaker open", err)
		}
		return nil, err
	}
	return scores, nil
}

func (s *LLM) scoreOnce(ctx context.Context, query string, candidates []*core.Candidate) (map[string]float64, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scoringSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildScoringPrompt(query, candidates)},
		},
	})
	if err != nil {
		return nil, core.NewRerankerUnavailableError("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewRerankerUnavailableError("empty chat response", nil)
	}

	scores, err := parseScores(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, core.NewRerankerUnavailableError("unparseable scores", err)
	}

	// Keep only ids we actually sent; models occasionally invent entries.
	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c != nil {
			known[c.ID()] = struct{}{}
		}
	}
	for id := range scores {
		if _, ok := known[id]; !ok {
			delete(scores, id)
		}
	}
	s.logger.Debug().Int("scored", len(scores)).Int("sent", len(candidates)).Msg("llm scoring pass")
	return scores, nil
}

const scoringSystemPrompt = `You grade how relevant each assessment is to a hiring query.
Respond with one JSON object mapping every assessment id to a relevance score between 0.0 and 1.0.
No prose, no markdown, JSON only.`

func buildScoringPrompt(query string, candidates []*core.Candidate) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nAssessments:\n")
	for _, c := range candidates {
		if c == nil || c.Assessment == nil {
			continue
		}
		a := c.Assessment
		fmt.Fprintf(&b, "- id: %s\n  name: %s\n  type: %s\n", a.ID, a.Name, a.Category.Label())
		if a.Description != "" {
			fmt.Fprintf(&b, "  about: %s\n", truncate(a.Description, maxDocRunes))
		}
	}
	return b.String()
}

// parseScores accepts a bare JSON object, an object wrapped in {"scores": ...},
// or either buried in surrounding prose or code fences.
func parseScores(content string) (map[string]float64, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in %q", truncate(content, 120))
	}

	var direct map[string]float64
	if err := json.Unmarshal([]byte(raw), &direct); err == nil && len(direct) > 0 {
		return direct, nil
	}

	var wrapped struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Scores) > 0 {
		return wrapped.Scores, nil
	}
	return nil, fmt.Errorf("no usable scores in %q", truncate(raw, 120))
}

func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

var _ core.RelevanceScorer = (*LLM)(nil)
