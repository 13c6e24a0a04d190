package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"guias/internal/errs"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatXLSX = "xlsx"
)

func normalizeFormat(raw string, allowed ...string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = formatJSON
	}
	if format == "yml" {
		format = formatYAML
	}
	for _, candidate := range allowed {
		if format == candidate {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (expected: %s)", raw, strings.Join(allowed, "|"))
}

func resolveOutputWriter(cmd *cobra.Command, outPath string) (io.Writer, func() error, error) {
	trimmed := strings.TrimSpace(outPath)
	if trimmed == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(trimmed)
	if err != nil {
		return nil, nil, errs.Wrapf(err, "open output file %q", trimmed)
	}
	return f, f.Close, nil
}

// writeStructured renders value as indented JSON or YAML.
func writeStructured(w io.Writer, format string, value any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return errs.Wrap(err, "encode yaml")
		}
		return errs.Wrap(enc.Close(), "flush yaml")
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return errs.Wrap(err, "encode json")
		}
		return nil
	}
}
