package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/provider"
	"docqa/internal/adapter/store"
	"docqa/internal/logging"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "docqa - ask questions over a directory of documents",
	Long: `docqa indexes plain-text documents three ways (dense embeddings,
BM25 keywords, context-augmented similarity) and answers questions by
fusing the strategies and handing the best chunks to a generation model.

Example usage:
  docqa ingest ./docs              # Chunk, embed, and index documents
  docqa query -q "refund policy"   # Search without generation
  docqa ask -q "what is the refund policy?"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// .env is optional; missing files are fine.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = logging.New(cfg.Logging.Level)
		return nil
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docqa.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "state directory (default is current directory)")
}

// buildProvider wires the configured embedding/generation provider.
func buildProvider() (port.Embedder, port.Generator, port.RerankOracle, error) {
	opts := provider.ProviderOptions{
		EmbedModel:     cfg.Embedding.Model,
		Dimension:      cfg.Embedding.Dimension,
		BatchSize:      cfg.Embedding.BatchSize,
		GenModel:       cfg.Generation.Model,
		MaxTokens:      cfg.Generation.MaxTokens,
		Temperature:    cfg.Generation.Temperature,
		EmbedTimeout:   time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		RequestTimeout: time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	}

	switch cfg.Embedding.Provider {
	case "mock":
		mock := provider.NewMockEmbedder(cfg.Embedding.Dimension)
		return mock, mock, mock, nil
	case "azure":
		p, err := provider.NewAzureProvider(cfg.Embedding.APIKeyEnv, cfg.Embedding.EndpointEnv, opts)
		if err != nil {
			return nil, nil, nil, err
		}
		return p, p, p, nil
	default:
		p, err := provider.NewOpenAIProvider(cfg.Embedding.APIKeyEnv, opts)
		if err != nil {
			return nil, nil, nil, err
		}
		return p, p, p, nil
	}
}

// buildEngine creates an engine from config.
func buildEngine(oracle port.RerankOracle) *usecase.Engine {
	return usecase.NewEngine(usecase.EngineOptions{
		K1: cfg.Engine.K1,
		B:  cfg.Engine.B,
		Weights: usecase.FusionWeights{
			Semantic:   cfg.Engine.SemanticWeight,
			BM25:       cfg.Engine.BM25Weight,
			Contextual: cfg.Engine.ContextualWeight,
		},
		HybridCandidates: cfg.Engine.HybridCandidates,
		RerankCandidates: cfg.Engine.RerankCandidates,
		ContextTopK:      cfg.Engine.ContextTopK,
		CitationTopK:     cfg.Engine.CitationTopK,
		Oracle:           oracle,
		Cache: cache.NewQueryCache(cfg.Cache.MaxSize,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		Logger: logger,
	})
}

func snapshotPath() string {
	return config.SnapshotPath(rootDir)
}

// restoreEngine loads the snapshot into a fresh engine.
func restoreEngine(oracle port.RerankOracle) (*usecase.Engine, error) {
	dbPath := config.SnapshotPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index found at %s. Run 'docqa ingest' first", dbPath)
	}

	st, err := store.NewBoltSnapshotStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer st.Close()

	engine := buildEngine(oracle)
	if err := engine.Restore(st); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	return engine, nil
}

// saveEngine writes the engine corpus to the snapshot database.
func saveEngine(engine *usecase.Engine) error {
	if err := config.EnsureStateDir(rootDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	st, err := store.NewBoltSnapshotStore(config.SnapshotPath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer st.Close()

	return engine.Snapshot(st)
}
