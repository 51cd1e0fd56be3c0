package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/nanotipbot/internal/config"
	"github.com/edgard/nanotipbot/internal/logger"
	"github.com/edgard/nanotipbot/internal/telegram"
	"github.com/edgard/nanotipbot/internal/twitter"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Register the Telegram webhook and compute Twitter CRC responses",
		Long: `Register the Telegram webhook at <server.base_url>/telegram/<telegram.webhook_uri>.

With --crc-token, print the response_token the Twitter account activity API expects for
that challenge instead.`,
		Args: cobra.NoArgs,
		RunE: runWebhook,
	}
	cmd.Flags().String("crc-token", "", "twitter crc_token to answer")
	return cmd
}

func runWebhook(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}

	if token, _ := cmd.Flags().GetString("crc-token"); token != "" {
		if cfg.Twitter.ConsumerSecret == "" {
			return fmt.Errorf("twitter.consumer_secret is not set")
		}
		fmt.Fprintln(cmd.OutOrStdout(), twitter.Sign([]byte(cfg.Twitter.ConsumerSecret), []byte(token)))
		return nil
	}

	if !cfg.Telegram.Enabled {
		return fmt.Errorf("telegram is disabled")
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required to register the webhook")
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log)
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(cfg.Server.BaseURL, "/") + "/telegram/" + cfg.Telegram.WebhookURI
	if err := telegram.RegisterWebhook(cmd.Context(), tg, url, cfg.Telegram.WebhookSecret); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Telegram webhook registered:", url)
	return nil
}
