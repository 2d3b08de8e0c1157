package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hybrid/engine"
	"hybrid/experiments/metrics"
	"hybrid/filter"
	"hybrid/game"
	"hybrid/searcher"
	"hybrid/uci"
)

// benchFENs are the standing benchmark positions: the initial position
// and a quiet middlegame.
var benchFENs = []string{
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	"r2q1rk1/pp2bppp/2n1pn2/2bp4/3P4/2N1PN2/PPQ1BPPP/R1B2RK1 w - - 0 10",
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := rootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func rootCommand() *cobra.Command {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "hybrid",
		Short:         "Hybrid MCTS move selection with engine-filtered expansion",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(analyzeCommand(&configPath))
	root.AddCommand(playCommand(&configPath))
	root.AddCommand(benchCommand(&configPath))
	return root
}

func analyzeCommand(configPath *string) *cobra.Command {
	var fen string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Pick a move for a single position",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			comp, err := buildComponents(cfg)
			if err != nil {
				return err
			}
			defer comp.shutdown()

			position, err := game.NewPosition(fen)
			if err != nil {
				return err
			}

			root := searcher.NewRoot(position)
			comp.collector.Start()
			if err := comp.mcts.RunSimulations(root, cfg.Simulations); err != nil {
				return err
			}
			metric := comp.collector.Complete()

			move, ok := root.BestMove()
			if !ok {
				if root.Terminal() {
					fmt.Println("position is terminal, no move")
				} else {
					fmt.Println("search produced no move")
				}
				return nil
			}
			fmt.Printf("bestmove %s\n", move.UCI())
			log.Info().
				Int("simulations", metric.Simulations).
				Int("engine_calls", metric.EngineCalls).
				Int("cache_hits", metric.CacheHits).
				Dur("duration", metric.Duration).
				Msg("search stats")
			return nil
		},
	}
	cmd.Flags().StringVar(&fen, "fen", benchFENs[0], "position to analyze")
	return cmd
}

func playCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Self-play one game between two hybrid agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			comp, err := buildComponents(cfg)
			if err != nil {
				return err
			}
			defer comp.shutdown()

			agent := engine.NewSearchAgent(comp.mcts, cfg.Simulations, engine.WithCollector(comp.collector))
			match := engine.NewMatch(game.StartingPosition(), agent, agent)
			final, moves, err := match.Run()
			if err != nil {
				return err
			}

			var engineCalls int
			for _, move := range moves {
				engineCalls += move.EngineCalls
			}
			log.Info().
				Int("moves", len(moves)).
				Int("engine_calls", engineCalls).
				Msg("game stats")
			fmt.Printf("game over after %d moves, final position %s\n", len(moves), final.FEN())
			return nil
		},
	}
	return cmd
}

func benchCommand(configPath *string) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Search the benchmark positions and write a CSV report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			comp, err := buildComponents(cfg)
			if err != nil {
				return err
			}
			defer comp.shutdown()

			var records []metrics.SearchRecord
			for _, fen := range benchFENs {
				record, err := benchPosition(cfg, comp, fen)
				if err != nil {
					return err
				}
				records = append(records, record)
			}

			writer, err := metrics.NewWriter(outDir)
			if err != nil {
				return err
			}
			if err := writer.WriteSearchRecords(records); err != nil {
				return err
			}
			fmt.Printf("report written to %s\n", writer.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "experiments/runs", "report output directory")
	return cmd
}

func benchPosition(cfg Config, comp *components, fen string) (metrics.SearchRecord, error) {
	position, err := game.NewPosition(fen)
	if err != nil {
		return metrics.SearchRecord{}, err
	}

	root := searcher.NewRoot(position)
	comp.collector.Start()
	if err := comp.mcts.RunSimulations(root, cfg.Simulations); err != nil {
		return metrics.SearchRecord{}, err
	}

	record := metrics.SearchRecord{
		FEN:          fen,
		TopK:         cfg.TopK,
		Depth:        cfg.Depth,
		ThresholdCP:  cfg.ThresholdCP,
		RootMoves:    len(position.LegalMoves()),
		SearchMetric: comp.collector.Complete(),
	}

	move, ok := root.BestMove()
	if !ok {
		return record, nil
	}
	record.BestMove = move.UCI()

	// Score the chosen move the same way the filter would, for the report.
	cp, err := comp.client.Evaluate(position.Play(move).FEN())
	if err != nil {
		return record, err
	}
	record.BestMoveCP = cp
	return record, nil
}

// components holds the wired process-wide resources: one engine process,
// one cache, and the searcher built on them.
type components struct {
	client    *uci.Client
	store     *filter.Store
	collector metrics.Collector
	mcts      *searcher.MCTS
}

func buildComponents(cfg Config) (*components, error) {
	client, err := uci.Start(uci.Config{
		Path:             cfg.EnginePath,
		Depth:            cfg.Depth,
		MoveTime:         cfg.moveTime(),
		HandshakeTimeout: cfg.handshakeTimeout(),
		SearchTimeout:    cfg.searchTimeout(),
		Logger:           log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	if err := client.SetOption("Threads", fmt.Sprint(cfg.EngineThreads)); err != nil {
		client.Quit()
		return nil, err
	}
	if err := client.SetOption("Hash", fmt.Sprint(cfg.EngineHashMB)); err != nil {
		client.Quit()
		return nil, err
	}
	if err := client.NewGame(); err != nil {
		client.Quit()
		return nil, err
	}

	var store *filter.Store
	if cfg.CachePath != "" {
		store, err = filter.OpenStore(cfg.CachePath)
		if err != nil {
			client.Quit()
			return nil, err
		}
	}

	collector := metrics.NewCollector()
	moveFilter := filter.New(
		client,
		filter.NewCache(store),
		filter.Config{ThresholdCP: cfg.ThresholdCP, TopK: cfg.TopK},
		filter.WithMetrics(collector),
	)

	options := []searcher.Option{
		searcher.WithExploration(cfg.Exploration),
		searcher.WithMetrics(collector),
	}
	if cfg.RolloutCutoff > 0 {
		options = append(options, searcher.WithLeafEvaluator(searcher.RolloutEvaluator(cfg.RolloutCutoff)))
	}

	return &components{
		client:    client,
		store:     store,
		collector: collector,
		mcts:      searcher.NewMCTS(moveFilter, options...),
	}, nil
}

func (c *components) shutdown() {
	c.client.Quit()
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing cache store")
		}
	}
}
