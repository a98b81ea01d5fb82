package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// outputFormat returns the --output format, defaulting to table.
func outputFormat() string {
	output := viper.GetString("output")
	if output == "" {
		return constants.FormatTable
	}

	return output
}

func validateFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// render writes data as JSON or YAML, or calls table for table output.
func render(w io.Writer, data interface{}, table func(io.Writer) error) error {
	format := outputFormat()

	switch format {
	case constants.FormatJSON:
		return renderJSON(w, data)
	case constants.FormatYAML:
		return renderYAML(w, data)
	case constants.FormatTable:
		return table(w)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

func renderJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
