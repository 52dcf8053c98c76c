package cli

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/domain"
)

// NewScoresCmd prints the ranked high score list.
func NewScoresCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Print the high scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			deps, err := buildComponents(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer deps.Close()
			if deps.backend == "memory" {
				slog.Warn("scores: " + errNoStore.Error())
			}

			records, err := deps.service.HighScores(cmd.Context())
			if err != nil {
				return err
			}
			return writeScores(cmd.OutOrStdout(), records)
		},
	}
}

func writeScores(out io.Writer, records []domain.ScoreRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No high scores yet.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSCORE\tTIME")
	for i, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%ds\n", i+1, r.Name, r.Score, r.ElapsedSeconds)
	}
	return w.Flush()
}
