package cmd

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ironsheep/vanishing-point-mcp/internal/server"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Find vanishing points in an image",
	Long: `Detect line segments in an image and extract vanishing points.

Examples:
  vpoint-mcp detect hallway.jpg
  vpoint-mcp detect hallway.jpg --include-segments --format yaml
  vpoint-mcp detect hallway.jpg --segments-only`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runDetect,
}

func init() {
	detectCmd.Flags().String("format", outputFormatJSON, "output format (json, yaml)")
	detectCmd.Flags().Bool("include-segments", false, "include the detected segments in the result")
	detectCmd.Flags().Bool("segments-only", false, "only detect line segments")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	includeSegments, _ := cmd.Flags().GetBool("include-segments")
	segmentsOnly, _ := cmd.Flags().GetBool("segments-only")

	tool := "image_vanishing_points"
	params := map[string]interface{}{
		"path":             args[0],
		"include_segments": includeSegments,
	}
	if segmentsOnly {
		tool = "image_detect_segments"
		delete(params, "include_segments")
	}
	toolArgs, err := json.Marshal(params)
	if err != nil {
		return err
	}

	srv := server.New(*GetConfig(), slog.Default())
	result, err := srv.CallTool(tool, toolArgs)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), format, result)
}
