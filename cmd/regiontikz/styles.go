package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"regiontikz/internal/styles"
)

var stylesFormat string

func runStyles(cmd *cobra.Command, args []string) error {
	m := styles.Default()

	switch strings.ToLower(stylesFormat) {
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode styles: %w", err)
		}
		fmt.Println(string(data))
	case "yaml", "yml":
		data, err := yaml.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode styles: %w", err)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unsupported format %q, want json or yaml", stylesFormat)
	}
	return nil
}
