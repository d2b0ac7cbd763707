package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/config"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 60
	replyPageSize       = 20
)

// ThreadClient is the subset of the Assistants v2 API used to run one
// valuation. *openai.Client satisfies it.
type ThreadClient interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

// OpenAIOptions tunes the run poll loop.
type OpenAIOptions struct {
	AssistantID  string
	PollInterval time.Duration
	MaxPolls     int
}

// OpenAIAssistant writes narratives through a pre-configured assistant: one
// thread per valuation, one user message, one run polled until it settles.
type OpenAIAssistant struct {
	client ThreadClient
	opts   OpenAIOptions
}

// NewOpenAIClient builds the API client from configuration.
func NewOpenAIClient(cfg config.AssistantConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.GetOpenAIAPIKey())
	if base := strings.TrimSpace(cfg.GetOpenAIBaseURL()); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	return openai.NewClientWithConfig(clientCfg)
}

// NewOpenAIAssistant creates the primary generator from configuration.
func NewOpenAIAssistant(cfg config.AssistantConfig) *OpenAIAssistant {
	return NewOpenAIAssistantWithClient(NewOpenAIClient(cfg), OpenAIOptions{
		AssistantID:  cfg.GetOpenAIAssistantID(),
		PollInterval: cfg.GetOpenAIPollInterval(),
		MaxPolls:     cfg.GetOpenAIMaxPolls(),
	})
}

// NewOpenAIAssistantWithClient creates a generator over an arbitrary thread client.
func NewOpenAIAssistantWithClient(client ThreadClient, opts OpenAIOptions) *OpenAIAssistant {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = defaultMaxPolls
	}
	return &OpenAIAssistant{client: client, opts: opts}
}

// Provider implements Generator.
func (a *OpenAIAssistant) Provider() domain.Provider { return domain.ProviderOpenAI }

// Generate implements Generator.
func (a *OpenAIAssistant) Generate(ctx context.Context, profile domain.PropertyProfile) (Narrative, error) {
	thread, err := a.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return Narrative{}, fmt.Errorf("create thread: %w", err)
	}

	_, err = a.client.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: FormatPropertyMessage(profile),
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("add message: %w", err)
	}

	run, err := a.client.CreateRun(ctx, thread.ID, openai.RunRequest{AssistantID: a.opts.AssistantID})
	if err != nil {
		return Narrative{}, fmt.Errorf("create run: %w", err)
	}

	if err := a.waitForRun(ctx, thread.ID, run.ID); err != nil {
		return Narrative{}, err
	}

	text, err := a.readReply(ctx, thread.ID, run.ID)
	if err != nil {
		return Narrative{}, err
	}
	return Narrative{Text: text, Provider: domain.ProviderOpenAI}, nil
}

// waitForRun checks the run every PollInterval, at most MaxPolls times.
func (a *OpenAIAssistant) waitForRun(ctx context.Context, threadID, runID string) error {
	ticker := time.NewTicker(a.opts.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < a.opts.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		run, err := a.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("retrieve run: %w", err)
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusFailed:
			runErr := &RunError{Status: string(run.Status), Message: "unknown error"}
			if run.LastError != nil {
				runErr.Code = string(run.LastError.Code)
				runErr.Message = run.LastError.Message
			}
			return runErr
		case openai.RunStatusCancelled, openai.RunStatusCancelling, openai.RunStatusExpired:
			return &RunError{Status: string(run.Status)}
		case openai.RunStatusRequiresAction:
			// The assistant has no tools wired, so nothing can answer the action.
			return &RunError{Status: string(run.Status), Message: "tool calls are not supported"}
		}
	}
	return ErrPollBudgetExhausted
}

// readReply returns the text of the newest assistant message of the run.
func (a *OpenAIAssistant) readReply(ctx context.Context, threadID, runID string) (string, error) {
	limit := replyPageSize
	order := "desc"
	list, err := a.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range list.Messages {
		if msg.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" && content.Text != nil && strings.TrimSpace(content.Text.Value) != "" {
				return content.Text.Value, nil
			}
		}
		break
	}
	return "", ErrEmptyReply
}
