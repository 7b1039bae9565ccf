package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(newViper()).ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "readings",
		Short:         "Daily Bible readings served as a single web page",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v.GetString(keyLogLevel), v.GetString(keyLogFormat), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().String("log-level", defaultLogLevel, "log level: debug, info, warn or error")
	_ = v.BindPFlag(keyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newServeCmd(v), newSeedCmd(v))
	return root
}
