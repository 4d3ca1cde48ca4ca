package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var renderOpts struct {
	Input        string
	Output       string
	MasksPath    string
	BlurStrength int
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Blur scheduled regions across the full video",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		schedule, err := loadSchedule(renderOpts.MasksPath)
		if err != nil {
			return err
		}

		c := newCodec()
		total := probeTotal(ctx, c, renderOpts.Input)
		bar := newProgressBar(total, "Rendering")

		err = newEngine(c).Render(ctx, renderOpts.Input, renderOpts.Output,
			schedule, renderOpts.BlurStrength, progressFunc(bar, total))
		if err != nil {
			return fmt.Errorf("render %s: %w", renderOpts.Input, err)
		}
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Wrote %s\n", renderOpts.Output)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.Input, "input", "i", "", "Path to video")
	renderCmd.Flags().StringVarP(&renderOpts.Output, "output", "o", "output.mp4", "Path for the anonymized video")
	renderCmd.Flags().StringVarP(&renderOpts.MasksPath, "masks", "m", "masks.json", "Mask schedule JSON from analyze")
	renderCmd.Flags().IntVarP(&renderOpts.BlurStrength, "strength", "s", 15, "Blur strength (1-50)")
	renderCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(renderCmd)
}
