package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilworks/faceveil/internal/detect/factory"
	"github.com/veilworks/faceveil/internal/domain"
)

var analyzeOpts struct {
	Input       string
	Output      string
	Detector    string
	CascadePath string
	DeepFaceURL string
	AWSRegion   string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect faces in every frame and write the mask schedule as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		detector, err := factory.New(ctx, factory.Config{
			Type:        analyzeOpts.Detector,
			CascadePath: analyzeOpts.CascadePath,
			DeepFaceURL: analyzeOpts.DeepFaceURL,
			AWSRegion:   analyzeOpts.AWSRegion,
		})
		if err != nil {
			return fmt.Errorf("detector: %w", err)
		}

		c := newCodec()
		total := probeTotal(ctx, c, analyzeOpts.Input)
		bar := newProgressBar(total, "Analyzing")

		desc, schedule, err := newEngine(c).Analyze(ctx, detector, analyzeOpts.Input, progressFunc(bar, total))
		if err != nil {
			return fmt.Errorf("analyze %s: %w", analyzeOpts.Input, err)
		}
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)

		payload := struct {
			VideoInfo    domain.VideoInfo `json:"video_info"`
			FacesByFrame domain.Schedule  `json:"faces_by_frame"`
		}{
			VideoInfo:    desc.Info(),
			FacesByFrame: schedule,
		}

		out, err := os.Create(analyzeOpts.Output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("write masks file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Found faces in %d frames, wrote %s\n", len(schedule), analyzeOpts.Output)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Input, "input", "i", "", "Path to video")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Output, "output", "o", "masks.json", "Path for the mask schedule JSON")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Detector, "detector", "pigo", "Detection backend: pigo, rekognition, deepface, mock")
	analyzeCmd.Flags().StringVar(&analyzeOpts.CascadePath, "cascade", "./models/facefinder", "Pigo cascade file")
	analyzeCmd.Flags().StringVar(&analyzeOpts.DeepFaceURL, "deepface-url", "http://localhost:5005", "DeepFace service URL")
	analyzeCmd.Flags().StringVar(&analyzeOpts.AWSRegion, "aws-region", "us-east-1", "AWS region for Rekognition")
	analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
