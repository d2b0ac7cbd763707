package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/config"
)

const geminiAppName = "valuation-backup"

// GeminiBackup writes narratives with a Gemini model through an ADK agent.
type GeminiBackup struct {
	runner         *runner.Runner
	sessionService session.Service
}

// NewGeminiBackup creates the backup generator.
func NewGeminiBackup(ctx context.Context, cfg config.GeminiConfig) (*GeminiBackup, error) {
	llm, err := gemini.NewModel(ctx, cfg.GetGeminiModel(), &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini model: %w", err)
	}

	valuer, err := llmagent.New(llmagent.Config{
		Name:        "ValuationWriter",
		Model:       llm,
		Description: "Writes orientative property valuation reports for Spain.",
		Instruction: SystemInstruction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valuation agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        geminiAppName,
		Agent:          valuer,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valuation runner: %w", err)
	}

	return &GeminiBackup{runner: r, sessionService: sessionService}, nil
}

// Provider implements Generator.
func (g *GeminiBackup) Provider() domain.Provider { return domain.ProviderGemini }

// Generate implements Generator. Every call runs in a fresh session.
func (g *GeminiBackup) Generate(ctx context.Context, profile domain.PropertyProfile) (Narrative, error) {
	sessionID := uuid.New().String()
	userID := "valuation-" + sessionID

	_, err := g.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   geminiAppName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("gemini: create session: %w", err)
	}
	defer func() {
		_ = g.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   geminiAppName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			Text: FormatPropertyMessage(profile),
		}},
	}

	var out strings.Builder
	for event, err := range g.runner.Run(ctx, userID, sessionID, userMessage, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return Narrative{}, fmt.Errorf("gemini: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			out.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return Narrative{}, ErrEmptyReply
	}
	return Narrative{Text: text, Provider: domain.ProviderGemini}, nil
}
