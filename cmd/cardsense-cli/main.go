// Package main provides the CardSense CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cardsense-ai/cardsense/internal/answer"
	"github.com/cardsense-ai/cardsense/internal/audit"
	"github.com/cardsense-ai/cardsense/internal/cache"
	"github.com/cardsense-ai/cardsense/internal/catalog"
	"github.com/cardsense-ai/cardsense/internal/config"
	"github.com/cardsense-ai/cardsense/internal/generate"
	"github.com/cardsense-ai/cardsense/internal/observability"
	"github.com/cardsense-ai/cardsense/internal/prompt"
	"github.com/cardsense-ai/cardsense/internal/query"
	"github.com/cardsense-ai/cardsense/internal/retrieval"
)

var (
	cfgFile    string
	outputJSON bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cardsense-cli",
	Short: "CardSense CLI for asking card questions and administration",
	Long: `CardSense CLI answers questions about credit card rewards, fees, and
milestones from the configured card catalog and document search backend.

Use this tool to:
- Ask a question and stream the answer to the terminal
- List the cards in the active catalog
- Inspect the query audit log

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      logFormat,
			ServiceName: "cardsense-cli",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newCardsCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newService wires the full answer pipeline from the loaded config.
func newService() (*answer.Service, func(), error) {
	catalogStore, err := catalog.NewStore(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var cacheClient cache.Client
	if cfg.Retrieval.CacheResults && cfg.Cache.Driver == "memory" {
		mem := cache.NewMemoryClient(cfg.Cache.MaxEntries)
		cacheClient = mem
		cleanups = append(cleanups, func() { mem.Close() })
	}

	searchClient := retrieval.NewHTTPSearchClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.Timeout)
	orchestrator := retrieval.NewOrchestrator(searchClient, cacheClient, logger.WithComponent("retrieval"), cfg.Retrieval.TopK, cfg.Cache.TTL)

	generator := generate.NewClient(generate.Config{
		BaseURL:     cfg.Generation.BaseURL,
		APIKey:      cfg.Generation.APIKey,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Timeout:     cfg.Generation.Timeout,
	})

	enhancer := query.NewEnhancer(query.EnhancerConfig{
		MaxQueryChars: cfg.Retrieval.MaxQueryChars,
		TopK:          cfg.Retrieval.TopK,
	})
	builder := prompt.NewBuilder(cfg.Retrieval.SnippetCharBudget)

	service := answer.NewService(catalogStore, enhancer, orchestrator, builder, generator, nil, logger)
	return service, cleanup, nil
}

// cliEmitter streams answer events to the terminal.
type cliEmitter struct {
	ui *UI
}

func (e *cliEmitter) Status(stage string) error {
	switch stage {
	case "retrieving":
		e.ui.StartSpinner("searching card documentation...")
	case "generating":
		e.ui.UpdateSpinner("generating answer...")
	}
	return nil
}

func (e *cliEmitter) Token(token string) error {
	e.ui.StopSpinner()
	fmt.Print(token)
	return nil
}

func (e *cliEmitter) Done(answer.Result) error {
	e.ui.StopSpinner()
	fmt.Println()
	return nil
}

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var showMeta bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the configured cards",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
			defer cancel()

			question := args[0]
			for _, arg := range args[1:] {
				question += " " + arg
			}

			service, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()

			ui := NewUI(outputJSON, noColor)

			if outputJSON {
				result, err := service.AnswerSync(ctx, question)
				if err != nil {
					return fmt.Errorf("answer failed: %w", err)
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			em := &cliEmitter{ui: ui}
			result, err := service.Answer(ctx, question, em)
			ui.StopSpinner()
			if err != nil {
				ui.Error("answer failed: %v", err)
				return err
			}

			if showMeta {
				fmt.Println()
				ui.KeyValue("request", result.RequestID)
				ui.KeyValue("snippets", result.SnippetsUsed)
				if result.Usage != nil {
					ui.KeyValue("tokens", result.Usage.TotalTokens)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showMeta, "meta", false, "show request metadata after the answer")

	return cmd
}

// newCardsCmd creates the cards subcommand.
func newCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "List cards in the active catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.NewStore(cfg.Catalog.Path)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			cards := store.Current().Cards()

			if outputJSON {
				type cardOut struct {
					ID          string   `json:"id"`
					DisplayName string   `json:"displayName"`
					Bank        string   `json:"bank"`
					Aliases     []string `json:"aliases,omitempty"`
				}
				out := make([]cardOut, 0, len(cards))
				for _, c := range cards {
					out = append(out, cardOut{ID: c.ID, DisplayName: c.DisplayName, Bank: c.Bank, Aliases: c.Aliases})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			ui := NewUI(false, noColor)
			ui.Success("%d cards in catalog %s", len(cards), cfg.Catalog.Path)
			for _, c := range cards {
				fmt.Printf("  • %s (%s, %s)", c.DisplayName, c.ID, c.Bank)
				if len(c.Milestones) > 0 {
					fmt.Printf(" [%d milestones]", len(c.Milestones))
				}
				fmt.Println()
			}
			return nil
		},
	}
}

// newAuditCmd creates the audit subcommand.
func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent entries from the query audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			dsn := cfg.Audit.SQLite.Path
			if cfg.Audit.Driver == "postgres" {
				dsn = cfg.Audit.Postgres.DSN
			}

			store, err := audit.Open(cfg.Audit.Driver, dsn)
			if err != nil {
				return fmt.Errorf("open audit store: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("read audit log: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Println("audit log is empty")
				return nil
			}

			for _, e := range entries {
				status := "✗"
				if e.Answered {
					status = "✓"
				}
				fmt.Printf("%s %s  %dms  %q\n", status, e.CreatedAt.Format(time.RFC3339), e.DurationMs, e.Query)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")

	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				_ = enc.Encode(map[string]string{"version": "0.1.0"})
				return
			}
			fmt.Println("cardsense-cli v0.1.0")
		},
	}
}
