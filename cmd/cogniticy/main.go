package main

import (
	"os"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel  string
	logFormat string
}

type solveOptions struct {
	output  string
	workers int
	resume  bool
	json    bool
}

func main() {
	g := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "cogniticy",
		Short: "Parcel massing engine: setbacks, floor stacking and shape search",
	}
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the project")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (console, json); overrides the project")

	rootCmd.AddCommand(solveCmd(g))
	rootCmd.AddCommand(validateCmd(g))
	rootCmd.AddCommand(envelopeCmd(g))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func solveCmd(g *globalOptions) *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve [project-path]",
		Short: "Derive envelopes, stack floors and search shapes for every parcel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), args[0], g, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: the project's output_directory)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parcels processed in parallel (default: the project's workers)")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "skip parcels recorded as processed in the checkpoint")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON instead of a table")
	return cmd
}

func validateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project and its parcels without computing massings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0], g)
		},
	}
}

func envelopeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "envelope [project-path]",
		Short: "Derive and print the buildable envelope of every parcel",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runEnvelope(args[0], g)
		},
	}
}
