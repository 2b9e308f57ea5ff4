// Package main provides the netopt CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var logLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netopt",
	Short: "netopt - backpropagation optimizers for dense neural networks",
	Long: `netopt trains feed-forward networks with mini-batch SGD, SGD with
momentum or Adam, and stores the result as a .born checkpoint.

It provides:
  - train: fit a network to a synthetic regression problem
  - inspect: print the header and tensors of a checkpoint
  - version: print the version`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "netopt %s\n", version)
	},
}

// newLogger builds the logger for a command from the --log-level flag.
func newLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(cmd.ErrOrStderr())
	l.SetLevel(level)
	return l, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(inspectCmd)
}
