package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/DentEMG-Intelligence/pkg/client"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server health, corpus counters, and the deployed model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd, cliCtx)
			defer cancel()

			health, err := cliCtx.Client.Healthz(ctx)
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			stats, err := cliCtx.Client.CorpusStats(ctx)
			if err != nil {
				return err
			}
			info, err := cliCtx.Client.ModelInfo(ctx)
			if err != nil {
				return err
			}

			return PrintResult(cmd, cliCtx, statusOutput{health, stats, info})
		},
	}
	return cmd
}

type statusOutput struct {
	Health *client.Health      `json:"health"`
	Corpus *client.CorpusStats `json:"corpus"`
	Model  *client.ModelInfo   `json:"model"`
}

func (s statusOutput) TableHeaders() []string {
	return []string{"SERVER", "VERSION", "ARTICLES", "PAIRS", "LABELED", "MODEL", "ACCURACY"}
}

func (s statusOutput) TableRows() [][]string {
	model := "untrained"
	accuracy := "n/a"
	if s.Model.Trained {
		model = s.Model.ModelType
		if s.Model.HoldoutAccuracy != nil {
			accuracy = fmt.Sprintf("%.3f", *s.Model.HoldoutAccuracy)
		}
	}
	return [][]string{{
		s.Health.Status,
		s.Health.Version,
		fmt.Sprintf("%d", s.Corpus.Articles),
		fmt.Sprintf("%d", s.Corpus.Pairs),
		fmt.Sprintf("%d", s.Corpus.LabeledPairs),
		model,
		accuracy,
	}}
}
