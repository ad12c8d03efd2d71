package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/config"
	"github.com/felixgeelhaar/oneway/internal/tui"
)

func newConfigCmd(opts Options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit oneway configuration",
		Long: `Manage the oneway configuration stored at ~/.oneway/config.yaml

Configuration includes:
  • Backend endpoints
  • Request timeout
  • Credential store backend
  • Logging and output settings

Environment variables ONEWAY_GRAPHQL_URL, ONEWAY_API_URL, ONEWAY_STORE,
ONEWAY_REDIS_ADDR and ONEWAY_PASSPHRASE override the file.

Examples:
  # View the effective configuration
  oneway config view

  # Get a specific value
  oneway config get endpoints.graphql

  # Set a specific value
  oneway config set store.backend encrypted-file

  # Show configuration file path
  oneway config path
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newConfigContext(cmd, opts)
			if err != nil {
				return err
			}
			return cc.Render(newConfigView(cc.Config))
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newConfigContext(cmd, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cc.Out, cc.ConfigPath)
			return err
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  `Retrieve the effective value of a configuration key using dot notation (e.g., endpoints.graphql).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := newConfigContext(cmd, opts)
			if err != nil {
				return err
			}
			value, err := cc.Config.Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cc.Out, value)
			return err
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a specific configuration value",
		Long: `Set the value of a configuration key in the config file using dot notation
(e.g., http.timeout 10s). Environment overrides are not written back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, opts, args[0], args[1])
		},
	}

	configCmd.AddCommand(viewCmd, pathCmd, getCmd, setCmd)
	return configCmd
}

// runConfigSet edits the file as written, so a broken value already in the
// file or the environment does not block fixing it.
func runConfigSet(cmd *cobra.Command, opts Options, key, value string) error {
	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.Path(explicit, opts.Getenv)
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return err
}

// configView lists every readable key. Secrets are not part of config.Keys.
type configView map[string]string

func newConfigView(cfg *config.Config) configView {
	view := configView{}
	for _, key := range config.Keys {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		view[key] = value
	}
	return view
}

func (v configView) RenderText(w io.Writer, color bool) error {
	pairs := make([][2]string, 0, len(config.Keys))
	for _, key := range config.Keys {
		if value, ok := v[key]; ok {
			pairs = append(pairs, [2]string{key, value})
		}
	}
	_, err := io.WriteString(w, tui.KeyValues(pairs, color))
	return err
}
