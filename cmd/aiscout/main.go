package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"aiscout/internal/classify"
	"aiscout/internal/collect"
	"aiscout/internal/config"
	"aiscout/internal/database"
	"aiscout/internal/dedup"
	"aiscout/internal/history"
	"aiscout/internal/pipeline"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "aiscout",
	Short:   "AI news scanning and classification",
	Long:    "aiscout collects AI news from feeds and APIs, deduplicates it against history, and classifies each item by content type.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("aiscout", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/aiscout/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, and the classifier provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and history status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Items:")
		fmt.Printf("  Total stored: %d\n", stats.TotalItems)
		if len(stats.ByType) > 0 {
			types := make([]string, 0, len(stats.ByType))
			for t := range stats.ByType {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Printf("    %s: %d\n", t, stats.ByType[t])
			}
		}
		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.TotalRuns)
		if stats.LastRunAt != "" {
			fmt.Printf("  Last run: %s (%d new items)\n", stats.LastRunAt, stats.LastRunItems)
		}

		hist := history.Load(cfg.GetDataDir(), cfg.History)
		urls, titles := hist.Len()
		fmt.Println("\nHistory:")
		fmt.Printf("  URLs: %d\n", urls)
		fmt.Printf("  Titles: %d\n", titles)

		cache := classify.LoadCache(cfg.GetDataDir(), cfg.Classifier.CacheEnabled)
		fmt.Printf("\nResponse cache: %d entries\n", cache.Len())
		return nil
	},
}

// --- collect command ---

var collectDaysBack int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect items from configured sources (no classification)",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist := history.Load(cfg.GetDataDir(), cfg.History)
		prefilter := dedup.NewURLFilter(hist, cfg.Scheduler.PrefilterEnabled)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.TotalTimeout())
		defer cancel()

		fmt.Println("Collecting items from sources...")
		collector := collect.NewCollector(cfg, prefilter, collectDaysBack)
		result := collector.Collect(ctx)

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  Passed prefilter: %d\n", len(result.Items))
		fmt.Printf("  Already seen: %d\n", result.Prefiltered)
		printSources(result.Sources)
		printFailures(result.Failures)
		return nil
	},
}

// --- run command ---

var runDaysBack int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> dedup -> enrich -> classify",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, cfg.GetDataDir())
		result := pipe.Run(context.Background(), runDaysBack)

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/4: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		fmt.Println("\nScan complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New items: %d\n", result.NewItems)
		fmt.Printf("  Duplicates: %d\n", result.Duplicates)
		fmt.Printf("  Classified via LLM: %d, fallback: %d, cache: %d\n",
			result.Stats.LLM, result.Stats.Fallback, result.Stats.Cached)
		printFailures(result.Failures)
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectDaysBack, "days-back", 1, "Lookback window (days)")
	runCmd.Flags().IntVar(&runDaysBack, "days-back", 1, "Lookback window (days)")
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage persisted history and response cache",
}

var cacheClearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Delete the deduplication history",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist := history.Load(cfg.GetDataDir(), cfg.History)
		if err := hist.Clear(); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	},
}

var cacheClearResponsesCmd = &cobra.Command{
	Use:   "clear-responses",
	Short: "Delete the classification response cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := classify.LoadCache(cfg.GetDataDir(), cfg.Classifier.CacheEnabled)
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Println("Response cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearHistoryCmd)
	cacheCmd.AddCommand(cacheClearResponsesCmd)
}

func printSources(sources map[string]int) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nItems by source:")
	type kv struct {
		key string
		val int
	}
	var sorted []kv
	for k, v := range sources {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
	for _, s := range sorted {
		fmt.Printf("  %s: %d\n", s.key, s.val)
	}
}

func printFailures(failures []collect.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Printf("\nFailed sources (%d):\n", len(failures))
	for _, f := range failures {
		fmt.Printf("  %s [%s]: %s\n", f.Source, f.Category, f.Err)
	}
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "aiscout.db")
	return database.Open(dbPath)
}
