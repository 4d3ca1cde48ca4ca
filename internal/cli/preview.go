package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var previewOpts struct {
	Input        string
	Output       string
	MasksPath    string
	BlurStrength int
	Duration     float64
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a short downscaled preview of the blurred video",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		schedule, err := loadSchedule(previewOpts.MasksPath)
		if err != nil {
			return err
		}

		c := newCodec()
		total := probeTotal(ctx, c, previewOpts.Input)
		bar := newProgressBar(total, "Previewing")

		err = newEngine(c).Preview(ctx, previewOpts.Input, previewOpts.Output,
			schedule, previewOpts.BlurStrength, previewOpts.Duration, progressFunc(bar, total))
		if err != nil {
			return fmt.Errorf("preview %s: %w", previewOpts.Input, err)
		}
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Wrote %s\n", previewOpts.Output)
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewOpts.Input, "input", "i", "", "Path to video")
	previewCmd.Flags().StringVarP(&previewOpts.Output, "output", "o", "preview.mp4", "Path for the preview video")
	previewCmd.Flags().StringVarP(&previewOpts.MasksPath, "masks", "m", "masks.json", "Mask schedule JSON from analyze")
	previewCmd.Flags().IntVarP(&previewOpts.BlurStrength, "strength", "s", 15, "Blur strength (1-50)")
	previewCmd.Flags().Float64VarP(&previewOpts.Duration, "duration", "d", 10, "Preview duration in seconds")
	previewCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(previewCmd)
}
