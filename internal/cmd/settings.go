package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/renato0307/grove/internal/config"
)

// SettingsCmd displays settings metadata
type SettingsCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the settings command
func (s *SettingsCmd) Run(cli *CLI) error {
	settingsFile := config.GetSettingsPath()
	infos := config.DescribeSettings()

	if s.Format == "json" {
		return printJSON(cli.stdout(), map[string]any{
			"settings":      infos,
			"settings_file": settingsFile,
		})
	}

	out := cli.stdout()
	fmt.Fprintf(out, "Settings file: %s\n\n", settingsFile)

	w := newTableWriter(out)
	fmt.Fprintln(w, "KEY\tTYPE\tEXAMPLE")
	for _, info := range infos {
		example := fmt.Sprintf("%v", info.Example)
		if values, ok := info.Example.([]string); ok {
			data, _ := json.Marshal(values)
			example = string(data)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Key, info.Type, example)
	}
	w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "All keys are optional. Flags and GROVE_* environment variables take precedence.")
	return nil
}
