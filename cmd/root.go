package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/knowledge"
	"github.com/gtoxlili/echoSage/metrics"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "echosage",
	Short: "Knowledge-augmented Solana portfolio decision engine",
	Long: `echosage answers natural-language questions about a Solana portfolio by combining
a small fact base with deterministic signal rules and an LLM oracle.

Configuration is read from defaults, an optional YAML file (--config) and
ECHOSAGE_* environment variables, e.g. ECHOSAGE_LLM_API_KEY.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger, err = config.NewLogger(cfg.Logging, os.Stderr)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(signalCmd)
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// openKnowledge 载入内置知识，再合并快照里学到的事实
func openKnowledge(rec *metrics.Recorder) (*knowledge.QueryService, error) {
	store := knowledge.NewStore(knowledge.WithMaxFacts(cfg.Knowledge.MaxFacts))
	if err := knowledge.Seed(store); err != nil {
		return nil, err
	}
	if path := cfg.Knowledge.SnapshotPath; path != "" {
		restored, err := store.LoadSnapshot(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge snapshot: %w", err)
		}
		logger.Info().Str("path", path).Int("restored", restored).Int("total", store.Len()).Msg("knowledge snapshot loaded")
	}
	return knowledge.NewQueryService(store, logger, rec), nil
}
