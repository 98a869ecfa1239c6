package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/app"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/config"
)

var askPlain bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot documentation question",
	Long: `Answer a single question from the terminal without conversation
history. The answer is rendered as markdown unless --plain is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print the raw answer without markdown rendering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(question string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	resp, err := a.Chat.Ask(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(renderMarkdown(resp.Answer))

	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s\n", src)
		}
	}
	return nil
}

// renderMarkdown converts markdown to styled terminal output. Falls back
// to the raw text when rendering is unavailable or --plain is set.
func renderMarkdown(text string) string {
	if askPlain {
		return text
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSuffix(rendered, "\n")
}
