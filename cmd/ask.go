package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gtoxlili/echoSage/chat"
	"github.com/gtoxlili/echoSage/utils"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Send a question to a running agent and wait for the reply",
	Long: `Connects to the agent's /chat websocket, sends the question and waits
for the correlated reply.

Example:
  echosage ask "Should I buy more SOL?"
  echosage ask '{"token": "SOL", "current_price": 180, "entry_price": 150, "historical_prices": [140, 160], "current_holdings": 25}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	transport, err := utils.RetryWithBackoff(ctx, func() (*chat.WebSocketTransport, error) {
		return chat.Dial(ctx, cfg.Client.URL, cfg.Client.Name, logger)
	}, cfg.Client.DialRetries)
	if err != nil {
		return err
	}
	defer transport.Close()

	client := chat.NewClient(transport, cfg.Client.Target, logger, chat.WithPollInterval(cfg.Client.PollInterval))

	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := transport.Listen(listenCtx, client); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("listener stopped")
		}
	}()

	reply, err := client.Send(ctx, query, cfg.Client.Timeout)
	if err != nil {
		return err
	}
	if reply.TimedOut {
		return fmt.Errorf("no response within %s (acknowledged: %t)", cfg.Client.Timeout, reply.Acked)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), reply.Payload)
	return err
}
