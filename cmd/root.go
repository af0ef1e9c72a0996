// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/telekom/tern/internal/logger"
	"github.com/telekom/tern/internal/tracing"
	"github.com/telekom/tern/internal/traceroute"
	"github.com/telekom/tern/pkg/config"
)

// errGaveUp signals a trace that ran to its hop ceiling without an
// answer from the destination. It has its own exit code so scripts can
// tell "never answered" from "could not even start".
var errGaveUp = errors.New("gave up")

// The constructors the command wires together. Swapped in tests.
var (
	newClient  = traceroute.New
	newTracing = tracing.New
)

// NewCmdRoot creates a new root command
func NewCmdRoot(version string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tern <destination>",
		Short: "Tern, the UDP traceroute",
		Long: "Tern traces the route IP packets take to a destination host with the classic\n" +
			"UDP method: probes with rising TTLs, one at a time, read back through the\n" +
			"ICMP errors the path returns. It needs root or CAP_NET_RAW to do so.",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run(),
	}

	cobra.OnInitialize(func() {
		initConfig(cfgFile)
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.tern.yaml)")

	flags := rootCmd.Flags()
	flags.IntP("first-hop", "f", traceroute.DefaultFirstTTL, "TTL of the first hop to probe")
	flags.IntP("max-hops", "m", traceroute.DefaultMaxTTL, "highest TTL probed before giving up")
	flags.IntP("queries", "q", traceroute.DefaultQueries, "probes sent per hop")
	flags.DurationP("timeout", "t", traceroute.DefaultTimeout, "time to wait for each probe's response")
	flags.IntP("port", "p", traceroute.DefaultPort, "destination port of the first probe")
	flags.BoolP("resolve", "r", false, "resolve hop addresses to names")
	flags.StringP("output", "o", config.OutputText, "output format: text, json, or yaml")
	flags.Bool("tracing", false, "enable OpenTelemetry span export, to stderr unless configured otherwise")

	_ = viper.BindPFlag("traceroute.firstHop", flags.Lookup("first-hop"))
	_ = viper.BindPFlag("traceroute.maxHops", flags.Lookup("max-hops"))
	_ = viper.BindPFlag("traceroute.queries", flags.Lookup("queries"))
	_ = viper.BindPFlag("traceroute.timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("traceroute.port", flags.Lookup("port"))
	_ = viper.BindPFlag("traceroute.resolveNames", flags.Lookup("resolve"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("telemetry.enabled", flags.Lookup("tracing"))

	return rootCmd
}

// Execute runs the command tree and maps the outcome to the process
// exit code: 0 when the destination answered, 1 for anything that kept
// the trace from running, 2 when the trace gave up.
func Execute(version string) {
	cmd := NewCmdRoot(version)

	err := cmd.Execute()
	switch {
	case err == nil:
	case errors.Is(err, errGaveUp):
		// The hop lines already told the story, no message needed.
		os.Exit(2)
	default:
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tern" (without an extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tern")
	}

	viper.SetOptions(viper.ExperimentalBindStruct())
	viper.SetEnvPrefix("tern")
	dotreplacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(dotreplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// run returns the entry point of a trace. It only returns errors worth
// printing; an unreached destination surfaces as errGaveUp, which
// Execute maps to an exit code without a message.
func run() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := logger.NewContextWithLogger(ctx)
		defer cancel()
		log := logger.FromContext(ctx)

		cfg := &config.Config{}
		if err := viper.Unmarshal(cfg); err != nil {
			log.Error("Failed to parse config", "error", err)
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if err := cfg.Validate(ctx); err != nil {
			return err
		}

		tel := newTracing(cfg.Telemetry, cmd.Root().Version)
		if err := tel.Init(ctx); err != nil {
			return err
		}
		defer func() {
			if err := tel.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown telemetry", "error", err)
			}
		}()

		return trace(ctx, cfg, args[0], os.Stdout)
	}
}

// trace runs the traceroute and renders the report in the configured
// format. The text format streams to stdout while the trace runs; the
// document formats print once it finished.
func trace(ctx context.Context, cfg *config.Config, host string, stdout io.Writer) error {
	out := stdout
	if !cfg.Streaming() {
		out = io.Discard
	}

	client, err := newClient(cfg.Traceroute, out)
	if err != nil {
		return err
	}

	report, err := client.Run(ctx, host)
	if err != nil {
		return err
	}

	if err := render(stdout, cfg.Output, report); err != nil {
		return err
	}
	if !report.Reached {
		return errGaveUp
	}
	return nil
}

// render writes the report document for the non-streaming formats.
func render(w io.Writer, format string, rep *traceroute.Report) error {
	switch format {
	case config.OutputJSON:
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case config.OutputYAML:
		data, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return nil
}
