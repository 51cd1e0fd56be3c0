// Package main contains the entrypoint of the tip bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tipbot",
		Short:        "Nano tip bot for Telegram and Twitter",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "./config.yaml", "path to the configuration file")

	root.AddCommand(serveCmd())
	root.AddCommand(webhookCmd())
	return root
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
