// Package gemini classifies admin messages into store operations using
// Gemini function calling.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/database"
	"github.com/edgard/wooadminbot/internal/dispatch"
	"github.com/edgard/wooadminbot/internal/metrics"
	"github.com/edgard/wooadminbot/internal/resilience"
)

// argsParam is the single string parameter every function declaration takes.
// Its value is the raw argument string in the operation's grammar.
const argsParam = "args"

// Intent is the classifier's decision. Either Operation is set and Args holds
// the raw argument string, or Reply holds a direct text answer.
type Intent struct {
	Operation string
	Args      string
	Reply     string
}

// Classifier maps a message, with recent conversation history, onto one tool.
type Classifier interface {
	Classify(ctx context.Context, history []database.Message, text string, tools []dispatch.Tool) (*Intent, error)
}

// Option configures the client.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(cc *genai.ClientConfig) {
		cc.HTTPOptions.BaseURL = baseURL
	}
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
	retrier       resilience.Retrier
}

// NewClient creates a Gemini classifier.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger, opts ...Option) (Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}
	gi, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = ClassifierSystemInstruction
	}
	baseCfg := &genai.GenerateContentConfig{
		Temperature:       &cfg.Temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		},
	}

	logger := log.With("component", "gemini_client")
	retrier := resilience.NewRetrier(cfg.MaxRetries+1, time.Duration(cfg.RetryDelaySeconds)*time.Second)
	retrier.Retryable = retryable
	retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("Gemini API call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
	}

	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
		timeout:       cfg.Timeout,
		retrier:       retrier,
	}, nil
}

// retryable accepts server-side API failures only.
func retryable(err error) bool {
	code := apiErrorCode(err)
	return code == 500 || code == 503
}

// apiErrorCode returns the HTTP code of the first genai.APIError in the chain.
func apiErrorCode(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := any(e).(type) {
		case genai.APIError:
			return v.Code
		case *genai.APIError:
			return v.Code
		}
	}
	return 0
}

func (c *sdkClient) Classify(ctx context.Context, history []database.Message, text string, tools []dispatch.Tool) (*Intent, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := buildContents(history, text)
	cfg := *c.contentConfig
	cfg.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations(tools)}}

	c.log.DebugContext(ctx, "Classifying message", "history", len(history), "tools", len(tools))

	var resp *genai.GenerateContentResponse
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, &cfg)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues("error").Inc()
		c.log.ErrorContext(ctx, "Gemini classification failed", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	intent, err := intentFromResponse(resp)
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues("error").Inc()
		c.log.WarnContext(ctx, "Gemini returned no usable answer", "error", err)
		return nil, err
	}

	if intent.Operation != "" {
		metrics.ClassifierRequestsTotal.WithLabelValues("tool").Inc()
		c.log.InfoContext(ctx, "Message classified", "operation", intent.Operation)
	} else {
		metrics.ClassifierRequestsTotal.WithLabelValues("text").Inc()
	}
	return intent, nil
}

// functionDeclarations exposes each tool as a function with one string
// parameter carrying the raw arguments.
func functionDeclarations(tools []dispatch.Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description + "\nפורמט הפרמטרים: " + t.Grammar,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					argsParam: {
						Type:        genai.TypeString,
						Description: fmt.Sprintf(ArgsParamDescription, t.Grammar),
					},
				},
			},
		})
	}
	return decls
}

// buildContents turns stored history plus the new message into the request
// contents, oldest first. Empty turns are dropped.
func buildContents(history []database.Message, text string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		var role genai.Role = genai.RoleUser
		if m.Role == database.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(text, genai.RoleUser))
}

// intentFromResponse prefers the first function call over any text part.
func intentFromResponse(resp *genai.GenerateContentResponse) (*Intent, error) {
	if resp == nil {
		return nil, errors.New("classification returned no response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return nil, fmt.Errorf("classification blocked by safety filter: %s", reason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("classification returned empty content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil && part.FunctionCall.Name != "" {
			return &Intent{Operation: part.FunctionCall.Name, Args: argsOf(part.FunctionCall.Args)}, nil
		}
		text.WriteString(part.Text)
	}

	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return nil, fmt.Errorf("classification returned no content, finish reason: %s", resp.Candidates[0].FinishReason)
	}
	return &Intent{Reply: reply}, nil
}

func argsOf(args map[string]any) string {
	v, ok := args[argsParam]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
