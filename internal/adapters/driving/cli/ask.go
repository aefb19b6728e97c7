package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driving"
)

// Flags for the ask command.
var (
	askUser   string
	askModel  string
	askAPIKey string
)

var askCmd = &cobra.Command{
	Use:   "ask [doc-id] [question]",
	Short: "Ask a question about a document",
	Long: `Retrieves the passages most relevant to the question and streams a
grounded answer to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "default", "User whose stored API key to use")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "Override the chat model")
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Explicit API key (overrides the stored one)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if retriever == nil || synthesizer == nil {
		return errors.New("chat services not configured")
	}

	documentID, question := args[0], args[1]
	ctx := cmd.Context()

	passages, err := retriever.Retrieve(ctx, documentID, question, chatTopK)
	if err != nil {
		return fmt.Errorf("retrieving context: %w", err)
	}
	if len(passages) == 0 {
		return fmt.Errorf("no context found for document %s", documentID)
	}

	events, err := synthesizer.Stream(ctx, driving.SynthesisRequest{
		Question: question,
		Passages: passages,
		Model:    askModel,
		APIKey:   askAPIKey,
		Owner:    askUser,
	})
	if err != nil {
		return fmt.Errorf("starting answer stream: %w", err)
	}

	for ev := range events {
		switch ev.Type {
		case domain.AnswerDelta:
			cmd.Print(ev.Content)
		case domain.AnswerError:
			return errors.New(ev.Err)
		case domain.AnswerDone:
			cmd.Println()
		}
	}
	return nil
}
