package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scoutmcp/scoutmcp/configs"
	"github.com/scoutmcp/scoutmcp/internal/config"
)

// newConfigCmd creates the config command.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the .scoutmcp.yaml
file in the current directory, and SCOUTMCP_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigMCPCmd())
	return cmd
}

// newConfigMCPCmd creates the config mcp subcommand. It emits the
// snippet an MCP client needs to register this binary for a workspace.
func newConfigMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [path]",
		Short: "Print MCP client configuration JSON for a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			root, err := resolveRoot(arg)
			if err != nil {
				return err
			}

			bin, err := os.Executable()
			if err != nil {
				bin = "scoutmcp"
			}

			clientConfig := map[string]any{
				"mcpServers": map[string]any{
					"scoutmcp": map[string]any{
						"command": bin,
						"env": map[string]string{
							"WORKSPACE_PATH": root,
						},
					},
				},
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(clientConfig)
		},
	}
}

// newConfigInitCmd creates the config init subcommand.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented .scoutmcp.yaml template to the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const name = ".scoutmcp.yaml"
			if _, err := os.Stat(name); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", name)
			}
			if err := os.WriteFile(name, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}
