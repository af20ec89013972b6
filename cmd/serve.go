package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gtoxlili/echoSage/agent"
	"github.com/gtoxlili/echoSage/llm"
	"github.com/gtoxlili/echoSage/metrics"
	"github.com/gtoxlili/echoSage/server"
	"github.com/gtoxlili/echoSage/trade"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent (HTTP API and /chat websocket)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	kb, err := openKnowledge(rec)
	if err != nil {
		return err
	}
	book := trade.NewBook(logger)
	executor := trade.NewExecutor(trade.NewEngine(kb), kb, logger, rec)

	oracle := llm.NewAgent(cfg.LLM, logger)
	opts := []agent.Option{
		agent.WithBook(book),
		agent.WithMetrics(rec),
		agent.WithSynthesisTimeout(cfg.LLM.Timeout),
	}
	snapshotPath := cfg.Knowledge.SnapshotPath
	if cfg.Knowledge.Autosave && snapshotPath != "" {
		opts = append(opts, agent.WithAutosave(snapshotPath))
	}
	orchestrator := agent.NewOrchestrator(oracle, oracle, oracle, kb, logger, opts...)

	srv := server.New(server.Deps{
		Name:      cfg.Server.Name,
		Answerer:  orchestrator,
		Executor:  executor,
		Book:      book,
		Knowledge: kb,
		Registry:  reg,
		Log:       logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if snapshotPath != "" {
		if err := kb.Store().Save(snapshotPath); err != nil {
			return err
		}
		logger.Info().Str("path", snapshotPath).Int("facts", kb.Store().Len()).Msg("knowledge snapshot saved")
	}
	return nil
}
