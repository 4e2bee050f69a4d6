package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "videodna",
		Short:         "Perceptual video fingerprinting",
		Long:          "VideoDNA hashes sampled video frames into 256-bit perceptual fingerprints and compares them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.db, "db", "", "Path to the SQLite database file (env: VIDEODNA_DB_PATH)")
	pf.StringVar(&flags.temp, "temp", "", "Directory for downloads and temporary files (env: VIDEODNA_TEMP_DIR)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, fatal (env: LOG_LEVEL)")

	rootCmd.AddCommand(newHashCommand(ctx))
	rootCmd.AddCommand(newMatchByLineCommand())
	rootCmd.AddCommand(newMatchBruteCommand())
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
