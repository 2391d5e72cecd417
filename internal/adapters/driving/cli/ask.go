package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askModel       string
	askJSON        bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from indexed documents",
	Long: `Retrieves the most relevant chunks for the question and asks the
completion model to answer using only that context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askModel, "model", "", "completion model override")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context chunks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := initEngine(true); err != nil {
		return err
	}

	answer, err := answerService.Ask(cmd.Context(), args[0], askModel)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if askShowContext && len(answer.Context) > 0 {
		cmd.Println("\nContext:")
		printResults(cmd, answer.Context)
	}
	if len(answer.Context) > 0 {
		cmd.Println("\nSources:")
		seen := map[string]bool{}
		for _, r := range answer.Context {
			if !seen[r.Source] {
				seen[r.Source] = true
				cmd.Printf("  - %s\n", r.Source)
			}
		}
	}
	return nil
}
