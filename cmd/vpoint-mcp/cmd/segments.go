package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/vanishing-point-mcp/internal/server"
)

// segmentsFile is the input of the segments command. JSON files parse as YAML.
type segmentsFile struct {
	Width       int           `yaml:"width" json:"width"`
	Height      int           `yaml:"height" json:"height"`
	Calibration [][]float64   `yaml:"calibration" json:"calibration,omitempty"`
	Segments    []segmentLine `yaml:"segments" json:"segments"`
}

type segmentLine struct {
	X1 float64 `yaml:"x1" json:"x1"`
	Y1 float64 `yaml:"y1" json:"y1"`
	X2 float64 `yaml:"x2" json:"x2"`
	Y2 float64 `yaml:"y2" json:"y2"`
}

// segmentsCmd represents the segments command.
var segmentsCmd = &cobra.Command{
	Use:   "segments <file>",
	Short: "Find vanishing points from a segment list",
	Long: `Extract vanishing points from line segments listed in a YAML or JSON file.

The file holds the image size, an optional 3x3 calibration matrix and the
segments:

  width: 640
  height: 480
  segments:
    - {x1: 20, y1: 40, x2: 760, y2: 150}
    - {x1: 30, y1: 200, x2: 765, y2: 230}

Examples:
  vpoint-mcp segments lines.yaml
  vpoint-mcp segments lines.json --width 1280 --height 720 --format yaml`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSegments,
}

func init() {
	segmentsCmd.Flags().String("format", outputFormatJSON, "output format (json, yaml)")
	segmentsCmd.Flags().Int("width", 0, "image width (overrides the file)")
	segmentsCmd.Flags().Int("height", 0, "image height (overrides the file)")
	rootCmd.AddCommand(segmentsCmd)
}

func readSegmentsFile(path string) (*segmentsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read segments: %w", err)
	}
	var f segmentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

func runSegments(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}

	f, err := readSegmentsFile(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("width") {
		f.Width, _ = cmd.Flags().GetInt("width")
	}
	if cmd.Flags().Changed("height") {
		f.Height, _ = cmd.Flags().GetInt("height")
	}

	toolArgs, err := json.Marshal(f)
	if err != nil {
		return err
	}
	srv := server.New(*GetConfig(), slog.Default())
	result, err := srv.CallTool("vanishing_points_from_segments", toolArgs)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), format, result)
}
