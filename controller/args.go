package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"md5brute/internal/config"
)

type options struct {
	configPath string
	logLevel   string

	hash      string
	hashFile  string
	username  string
	maxLength int
	port      int
	strict    bool
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:          "controller",
		Short:        "Recover MD5 plaintexts by exhaustive search over [0-9a-zA-Z]",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	crack := &cobra.Command{
		Use:   "crack (--hash <digest> | -f <hash file> -u <username>) [-p <port>]",
		Short: "Wait for a worker and dispatch one search to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runCrack(cmd, cfg, opts)
		},
	}
	addTargetFlags(crack, &opts)
	crack.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on")

	local := &cobra.Command{
		Use:   "local (--hash <digest> | -f <hash file> -u <username>)",
		Short: "Run the search in this process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runLocal(cmd, cfg, opts)
		},
	}
	addTargetFlags(local, &opts)

	digest := &cobra.Command{
		Use:   "digest <input>",
		Short: "Print the MD5 of input as lowercase hex",
		Args:  cobra.ExactArgs(1),
		RunE:  runDigest,
	}

	root.AddCommand(crack, local, digest)
	return root
}

func addTargetFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.hash, "hash", "", "target MD5 digest (32 lowercase hex characters)")
	f.StringVarP(&opts.hashFile, "file", "f", "", "hash file with user:digest lines")
	f.StringVarP(&opts.username, "user", "u", "", "username to look up in the hash file")
	f.IntVarP(&opts.maxLength, "max-length", "m", 0, "longest candidate to try")
	f.BoolVar(&opts.strict, "strict", true, "reject targets that are not 32 lowercase hex characters")
	cmd.MarkFlagsMutuallyExclusive("hash", "file")
	cmd.MarkFlagsRequiredTogether("file", "user")
	cmd.MarkFlagsOneRequired("hash", "file")
}

// resolveConfig layers explicitly set flags over the file and environment.
func resolveConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if f.Changed("max-length") {
		cfg.Search.MaxLength = opts.maxLength
	}
	if f.Changed("port") {
		cfg.Controller.Port = opts.port
	}
	if f.Changed("strict") {
		cfg.Search.Strict = opts.strict
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
