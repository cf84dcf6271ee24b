package cli

import (
	"github.com/spf13/cobra"

	"github.com/rl1809/supplydesk/internal/config"
)

// RootOptions holds global flags for all commands. Flags that are set win
// over the config file.
type RootOptions struct {
	ConfigPath  string
	LogLevel    string
	HTTPAddr    string
	GRPCAddr    string
	StoreDriver string
	StoreDSN    string
	RedisAddr   string

	cfg *config.Config
}

// NewRootCommand creates the root command for the supplydesk CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "supplydesk",
		Short: "Supply-chain request desk",
		Long: `Track sales, warehouse, production and support requests through their
lifecycle while keeping the inventory ledger in step.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to the YAML config (default $"+config.EnvVar+")")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.HTTPAddr, "http-addr", "", "HTTP listen address")
	flags.StringVar(&opts.GRPCAddr, "grpc-addr", "", "gRPC listen address")
	flags.StringVar(&opts.StoreDriver, "store-driver", "", "storage driver (sqlite|mysql|memory)")
	flags.StringVar(&opts.StoreDSN, "store-dsn", "", "storage DSN or SQLite file path")
	flags.StringVar(&opts.RedisAddr, "redis-addr", "", "Redis address; empty disables Redis")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewClassifyCommand(opts))

	return cmd
}

// load reads the config file and applies the flags the user set.
func (o *RootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = o.HTTPAddr
	}
	if flags.Changed("grpc-addr") {
		cfg.GRPCAddr = o.GRPCAddr
	}
	if flags.Changed("store-driver") {
		cfg.Store.Driver = o.StoreDriver
	}
	if flags.Changed("store-dsn") {
		cfg.Store.DSN = o.StoreDSN
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = o.RedisAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
