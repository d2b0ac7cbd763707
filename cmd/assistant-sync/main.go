// Command assistant-sync pushes the report instructions to the configured
// OpenAI assistant.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/vglena/valorapro/internal/assistant"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "print the instructions without updating the assistant")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	flag.Parse()

	instructions := assistant.Instructions()
	if *dryRun {
		fmt.Print(instructions)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	if !cfg.IsAssistantEnabled() {
		log.Error("OPENAI_API_KEY and OPENAI_ASSISTANT_ID are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := assistant.NewOpenAIClient(cfg)
	updated, err := client.ModifyAssistant(ctx, cfg.GetOpenAIAssistantID(), openai.AssistantRequest{
		Model:        cfg.GetOpenAIAssistantModel(),
		Instructions: &instructions,
	})
	if err != nil {
		log.ExternalCallFailed("openai", "modify_assistant", string(assistant.Categorize(err)), err)
		os.Exit(1)
	}
	log.Info("assistant instructions updated", "assistantId", updated.ID, "model", updated.Model, "chars", len(instructions))
}
