package cmd

import (
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/trade"
)

var priceRequest entity.PriceRequest

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Compute a BUY/SELL/HOLD signal locally from price data",
	Long: `Runs the signal rules against the built-in knowledge (plus the snapshot,
if configured) without contacting the LLM.

Example:
  echosage signal --token SOL --price 180.5 --entry 150 --history 140,150,160,170,180 --holdings 25`,
	Args: cobra.NoArgs,
	RunE: runSignal,
}

func init() {
	flags := signalCmd.Flags()
	flags.StringVar(&priceRequest.Token, "token", config.DefaultToken, "Token symbol")
	flags.Float64Var(&priceRequest.CurrentPrice, "price", 0, "Current price")
	flags.Float64Var(&priceRequest.EntryPrice, "entry", 0, "Entry price")
	flags.Float64SliceVar(&priceRequest.HistoricalPrices, "history", nil, "Historical prices, oldest first")
	flags.Float64Var(&priceRequest.CurrentHoldings, "holdings", 0, "Current holdings as percent of portfolio")
	_ = signalCmd.MarkFlagRequired("price")
}

func runSignal(cmd *cobra.Command, _ []string) error {
	if priceRequest.CurrentPrice <= 0 {
		return fmt.Errorf("--price must be positive")
	}

	kb, err := openKnowledge(nil)
	if err != nil {
		return err
	}
	executor := trade.NewExecutor(trade.NewEngine(kb), kb, logger, nil)

	out, err := json.MarshalIndent(executor.Evaluate(priceRequest), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
