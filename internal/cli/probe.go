package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var probeInput string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the video descriptor as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := newCodec().Probe(cmd.Context(), probeInput)
		if err != nil {
			return fmt.Errorf("probe %s: %w", probeInput, err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(desc.Info())
	},
}

func init() {
	probeCmd.Flags().StringVarP(&probeInput, "input", "i", "", "Path to video")
	probeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(probeCmd)
}
