package main

import (
	"github.com/spf13/cobra"

	"md5brute/internal/config"
)

type options struct {
	configPath  string
	host        string
	port        int
	metricsAddr string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "worker -c <controller_host> -p <port>",
		Short:        "Connect to a controller and run one MD5 brute-force job",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "path to YAML config")
	f.StringVarP(&opts.host, "controller", "c", "", "controller host")
	f.IntVarP(&opts.port, "port", "p", 0, "controller port")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

// resolveConfig layers explicitly set flags over the file and environment.
func resolveConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("controller") {
		cfg.Controller.Host = opts.host
	}
	if f.Changed("port") {
		cfg.Controller.Port = opts.port
	}
	if f.Changed("metrics-addr") {
		cfg.Worker.MetricsAddr = opts.metricsAddr
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}
