package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/DentEMG-Intelligence/pkg/client"
)

// channelFlags maps flag names to their position in the request payload.
// Amplitudes are in microvolts; an omitted flag leaves the channel unset.
var channelFlagNames = []string{
	"masseter-right-chewing",
	"masseter-left-chewing",
	"temporalis-right-chewing",
	"temporalis-left-chewing",
	"masseter-right-mvc",
	"masseter-left-mvc",
	"temporalis-right-mvc",
	"temporalis-left-mvc",
}

// NewRecommendCmd creates the recommend command.
func NewRecommendCmd() *cobra.Command {
	var (
		apparatus     string
		age           int
		anomaly       string
		wear          string
		hyperfunction float64
		mvcDuration   float64
		topN          int
		alternatives  bool
		regions       []string
		manufacturers []string
		yearMin       int
		priceMax      float64
		channelVals   = make(map[string]*float64, len(channelFlagNames))
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend composite materials from an EMG recording",
		Long: "Submit surface EMG amplitudes (microvolts) for the masseter and temporalis\n" +
			"muscles and receive ranked composite recommendations with clinical justifications.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			req := &client.RecommendationRequest{
				Apparatus:            apparatus,
				OcclusionAnomalyType: anomaly,
				WearSeverity:         wear,
				TopN:                 topN,
				IncludeAlternatives:  alternatives,
				Regions:              regions,
				Manufacturers:        manufacturers,
				YearMin:              yearMin,
				PriceMax:             priceMax,
			}
			if cmd.Flags().Changed("age") {
				req.Age = &age
			}
			if cmd.Flags().Changed("mvc-hyperfunction") {
				req.MVCHyperfunctionPercent = &hyperfunction
			}
			if cmd.Flags().Changed("mvc-duration") {
				req.MVCDurationSecPerMin = &mvcDuration
			}

			var anyChannel bool
			for _, name := range channelFlagNames {
				if !cmd.Flags().Changed(name) {
					continue
				}
				anyChannel = true
				setChannel(&req.Channels, name, channelVals[name])
			}
			if !anyChannel {
				return fmt.Errorf("at least one EMG channel flag is required (e.g. --masseter-right-chewing 352.5)")
			}

			ctx, cancel := requestContext(cmd, cliCtx)
			defer cancel()

			res, err := cliCtx.Client.Recommend(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, cliCtx, recommendOutput{res})
		},
	}

	f := cmd.Flags()
	for _, name := range channelFlagNames {
		v := new(float64)
		channelVals[name] = v
		f.Float64Var(v, name, 0, fmt.Sprintf("EMG amplitude in uV for %s", strings.ReplaceAll(name, "-", " ")))
	}
	f.StringVar(&apparatus, "apparatus", "", "EMG apparatus label (default: reference apparatus)")
	f.IntVar(&age, "age", 0, "patient age in years")
	f.StringVar(&anomaly, "anomaly", "", "occlusion anomaly type, if any")
	f.StringVar(&wear, "wear", "", "wear grade: none|mild|moderate|severe|bushan_I..IV|twes_0..4")
	f.Float64Var(&hyperfunction, "mvc-hyperfunction", 0, "MVC hyperfunction percent")
	f.Float64Var(&mvcDuration, "mvc-duration", 0, "MVC activity duration in seconds per minute")
	f.IntVar(&topN, "top-n", 3, "maximum recommendations returned")
	f.BoolVar(&alternatives, "alternatives", false, "include non-optimal filler alternatives")
	f.StringSliceVar(&regions, "region", nil, "restrict catalog to regions (repeatable)")
	f.StringSliceVar(&manufacturers, "manufacturer", nil, "restrict catalog to manufacturers (repeatable)")
	f.IntVar(&yearMin, "year-min", 0, "minimum catalog release year")
	f.Float64Var(&priceMax, "price-max", 0, "maximum price in rubles")

	return cmd
}

func setChannel(ch *client.Channels, flagName string, v *float64) {
	switch flagName {
	case "masseter-right-chewing":
		ch.MasseterRightChewing = v
	case "masseter-left-chewing":
		ch.MasseterLeftChewing = v
	case "temporalis-right-chewing":
		ch.TemporalisRightChewing = v
	case "temporalis-left-chewing":
		ch.TemporalisLeftChewing = v
	case "masseter-right-mvc":
		ch.MasseterRightMVC = v
	case "masseter-left-mvc":
		ch.MasseterLeftMVC = v
	case "temporalis-right-mvc":
		ch.TemporalisRightMVC = v
	case "temporalis-left-mvc":
		ch.TemporalisLeftMVC = v
	}
}

// recommendOutput adapts a recommendation result to the table printer.
type recommendOutput struct {
	*client.RecommendationResult
}

func (r recommendOutput) TableHeaders() []string {
	return []string{"#", "COMPOSITE", "SCORE", "TIER", "CATEGORY", "REASONS"}
}

func (r recommendOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		tier := "alternative"
		if rec.Justification.IsPriority {
			tier = "priority"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			rec.Composite.Name,
			fmt.Sprintf("%.3f", rec.Score),
			tier,
			rec.Justification.Category,
			strings.Join(rec.Justification.Reasons, "; "),
		})
	}
	return rows
}
