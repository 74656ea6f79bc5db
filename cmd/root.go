package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/compress"
	"github.com/socraticlabs/socratic/internal/llm"
	"github.com/socraticlabs/socratic/internal/oracle"
	"github.com/socraticlabs/socratic/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "socratic",
	Short: "Adaptive AI tutor",
	Long:  "Socratic is an adaptive tutoring engine that generates verified practice questions and progressive hints.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SOCRATIC_DB env var)")
	rootCmd.PersistentFlags().Bool("no-oracle", false, "Disable symbolic answer verification")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(hintCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(classFileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SOCRATIC_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newClient wires the full generation stack: provider from env, event
// logging into the store, and optional prompt compression.
func newClient(ctx context.Context, s *store.Store) (*llm.Client, error) {
	var repo store.EventRepo
	if s != nil {
		repo = s.EventRepo()
	}

	provider, err := llm.NewProviderFromEnv(ctx, repo)
	if err != nil {
		return nil, err
	}

	var opts []llm.ClientOption
	if endpoint := os.Getenv("SOCRATIC_COMPRESS_ENDPOINT"); endpoint != "" {
		aggressiveness := 0.5
		if a := os.Getenv("SOCRATIC_COMPRESS_AGGRESSIVENESS"); a != "" {
			if f, err := strconv.ParseFloat(a, 64); err == nil {
				aggressiveness = f
			}
		}
		opts = append(opts, llm.WithCompressor(
			compress.NewHTTPCompressor(endpoint, os.Getenv("SOCRATIC_COMPRESS_API_KEY"), aggressiveness),
		))
	}

	return llm.NewClient(provider, opts...), nil
}

// newOracle returns the configured oracle, or nil when no app ID is set
// or verification was disabled.
func newOracle(cmd *cobra.Command) (oracle.Oracle, error) {
	if off, _ := cmd.Flags().GetBool("no-oracle"); off {
		return nil, nil
	}
	appID := os.Getenv("SOCRATIC_WOLFRAM_APP_ID")
	if appID == "" {
		return nil, nil
	}
	return oracle.NewWolframClient(appID)
}
