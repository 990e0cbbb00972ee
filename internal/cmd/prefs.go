package cmd

import (
	"context"
	"fmt"
)

// PrefsCmd reads and writes stored preferences
type PrefsCmd struct {
	Get PrefsGetCmd `cmd:"get" help:"Print a preference value"`
	Set PrefsSetCmd `cmd:"set" help:"Store a preference value"`
}

// PrefsGetCmd prints a preference
type PrefsGetCmd struct {
	Key string `arg:"" help:"Preference key"`
}

// Run executes the get command
func (p *PrefsGetCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}

	var result struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	if err := client.Do(context.Background(), "preference.get", map[string]any{"key": p.Key}, &result); err != nil {
		return err
	}
	if !result.Found {
		return fmt.Errorf("preference %q is not set", p.Key)
	}
	fmt.Fprintln(cli.stdout(), result.Value)
	return nil
}

// PrefsSetCmd stores a preference
type PrefsSetCmd struct {
	Key   string `arg:"" help:"Preference key"`
	Value string `arg:"" help:"Value (stored verbatim)"`
}

// Run executes the set command
func (p *PrefsSetCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	if err := client.Do(context.Background(), "preference.set", map[string]any{"key": p.Key, "value": p.Value}, nil); err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout(), "%s updated\n", p.Key)
	return nil
}
