package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/DentEMG-Intelligence/pkg/client"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	var skipSynthetic bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and deploy a classifier from the current corpus",
		Long: "Trigger a synchronous training run on the server.  The corpus of labeled\n" +
			"clinical pairs is expanded with synthetic variations unless --skip-synthetic\n" +
			"is set, and the resulting model replaces the deployed one on success.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd, cliCtx)
			defer cancel()

			res, err := cliCtx.Client.Train(ctx, &client.TrainRequest{SkipSynthetic: skipSynthetic})
			if err != nil {
				return err
			}
			return PrintResult(cmd, cliCtx, trainOutput{res})
		},
	}

	cmd.Flags().BoolVar(&skipSynthetic, "skip-synthetic", false, "train on curated and stored pairs only")
	return cmd
}

type trainOutput struct {
	*client.TrainResult
}

func (t trainOutput) TableHeaders() []string {
	return []string{"MODEL", "EXAMPLES", "TEST", "CLASSES", "ACCURACY", "DURATION"}
}

func (t trainOutput) TableRows() [][]string {
	accuracy := "n/a"
	if t.HoldoutAccuracy != nil {
		accuracy = fmt.Sprintf("%.3f", *t.HoldoutAccuracy)
	}
	return [][]string{{
		t.ModelType,
		fmt.Sprintf("%d", t.Examples),
		fmt.Sprintf("%d", t.TestExamples),
		fmt.Sprintf("%d", len(t.Classes)),
		accuracy,
		fmt.Sprintf("%dms", t.DurationMS),
	}}
}
