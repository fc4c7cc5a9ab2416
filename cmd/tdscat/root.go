package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// cli holds state shared by subcommands
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "tdscat",
		Short: "Decode TDS result streams and database queries",
		Long: `tdscat decodes TDS token streams (COLMETADATA / ROW / DONE) and database
query results into rows and writes them as JSON lines, aligned tables,
XLSX files or broker messages.

Examples:
  tdscat read orders.tds --format json
  tdscat read orders.tds.zst --seek 100 --limit 10 --hash
  tdscat query --config tdscat.yaml "SELECT * FROM orders"
  tdscat capture --config tdscat.yaml --out orders.tds --compress "SELECT * FROM orders"`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format: console, json")

	root.AddCommand(
		c.newReadCmd(),
		c.newQueryCmd(),
		c.newCaptureCmd(),
		c.newTablesCmd(),
		c.newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// load reads the config file and configures logging; flags override the file
func (c *cli) load(cmd *cobra.Command) error {
	if c.configPath != "" {
		cfg, err := LoadConfig(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	} else {
		c.cfg = DefaultConfig()
	}

	if c.logLevel != "" {
		c.cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		c.cfg.Logging.Format = c.logFormat
	}
	return setupLogging(c.cfg.Logging, cmd.ErrOrStderr())
}

// requireDatabase checks that a database section is configured
func (c *cli) requireDatabase() error {
	if c.cfg.Database.Type == "" {
		return fmt.Errorf("database.type is not set (use --config)")
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tdscat %s\n", version)
			return nil
		},
	}
}
