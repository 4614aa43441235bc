package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"rigcheck/internal/bottleneck"
	"rigcheck/internal/config"
	"rigcheck/internal/observability"
	"rigcheck/internal/services"

	"github.com/spf13/cobra"
)

var (
	configPath string // YAML config file
	debug      bool   // Lower log level to debug
)

var rootCmd = &cobra.Command{
	Use:   "bottleneck",
	Short: "PC build bottleneck analysis",
	Long: `Finds which of a build's CPU, GPU and RAM limits overall performance.

Examples:
  bottleneck serve
  bottleneck analyze --cpu "i5-4460" --gpu "RTX 4090" --ram "16GB DDR4-3200"
  bottleneck token --user alice
  bottleneck catalog --kind gpu`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "bottleneck.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadCatalog returns the embedded table unless catalog.path overrides it
func loadCatalog(cfg *config.Config) (*bottleneck.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return bottleneck.LoadCatalogFile(cfg.Catalog.Path)
	}
	return bottleneck.DefaultCatalog()
}

// newAnalysisService wires catalog, engine and the optional remote predictor
func newAnalysisService(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*services.AnalysisService, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	normalizer := bottleneck.NewNormalizer(catalog,
		bottleneck.WithMatchThreshold(cfg.Analysis.MatchThreshold),
		bottleneck.WithLogger(logger))
	engine := bottleneck.NewEngine(catalog, normalizer,
		bottleneck.WithThreshold(cfg.Analysis.Threshold),
		bottleneck.WithAgreementMargin(cfg.Analysis.AgreementMargin))

	// A nil *RemotePredictor must not become a non-nil interface
	var predictor services.Predictor
	if p := services.NewRemotePredictor(cfg.Predictor, metrics); p != nil {
		predictor = p
	}
	return services.NewAnalysisService(engine, predictor, metrics, logger), nil
}

// newAuthService keeps the generated key next to the builds database
func newAuthService(cfg *config.Config) (*services.AuthService, error) {
	keyFile := filepath.Join(filepath.Dir(filepath.Clean(cfg.Storage.Path)), "auth.key")
	return services.NewAuthService(cfg.Auth.Secret, keyFile, cfg.Auth.TokenExpiry)
}
