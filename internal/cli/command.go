package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal"
	"codeberg.org/snonux/ankilex/internal/anki"
	"codeberg.org/snonux/ankilex/internal/audio"
	"codeberg.org/snonux/ankilex/internal/batch"
	"codeberg.org/snonux/ankilex/internal/dictionary"
	"codeberg.org/snonux/ankilex/internal/domparse"
	"codeberg.org/snonux/ankilex/internal/fetch"
	"codeberg.org/snonux/ankilex/internal/models"
	"codeberg.org/snonux/ankilex/internal/processor"
)

// app carries the state shared by all subcommands
type app struct {
	flags  *Flags
	logger *zap.Logger
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	a := &app{flags: flags, logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "ankilex",
		Short: "Dictionary lookups and Anki flashcards",
		Long: `ankilex looks words up in online dictionaries (Collins via Youdao,
or an LLM for other languages) and turns the entries into Anki notes.

Examples:
  ankilex lookup see                      # Print the dictionary entry
  ankilex lookup Buch --lang auto         # Detect the language first
  ankilex add read --def 2 --context "..." # Send a note to Anki via AnkiConnect
  ankilex export --batch words.txt        # Build an .apkg from a word list`,
		Version:           internal.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setupLogger,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		a.lookupCommand(),
		a.providersCommand(),
		a.addCommand(),
		a.ankiCommand(),
		a.exportCommand(),
		a.surfaceCommand(),
		a.modelsCommand(),
		a.cacheCommand(),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.ankilex.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.ParserMode, "parser", flags.ParserMode, "HTML parse mode: inline, surface, remote or auto")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("parser.mode", cmd.PersistentFlags().Lookup("parser"))
}

func (a *app) setupLogger(cmd *cobra.Command, args []string) error {
	logger, err := NewLogger(viper.GetString("log.level"), viper.GetString("log.file"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) newProcessor(ctx context.Context) (*processor.Processor, error) {
	cfg, err := ProcessorConfig()
	if err != nil {
		return nil, err
	}
	return processor.New(ctx, cfg, a.logger)
}

func (a *app) lookup(ctx context.Context, proc *processor.Processor, word string) (*dictionary.Entry, error) {
	if a.flags.Provider != "" {
		return proc.LookupWithProvider(ctx, word, a.flags.Provider)
	}
	return proc.Lookup(ctx, word, a.flags.Language)
}

func (a *app) addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.flags.Language, "lang", "l", a.flags.Language, "Word language, or auto to detect (default from dictionary.language)")
	cmd.Flags().StringVarP(&a.flags.Provider, "provider", "p", a.flags.Provider, "Use this provider regardless of language")
}

func (a *app) lookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look a word up and print the entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := a.newProcessor(cmd.Context())
			if err != nil {
				return err
			}
			defer proc.Close()

			entry, err := a.lookup(cmd.Context(), proc, args[0])
			if err != nil {
				return err
			}
			return WriteEntry(cmd.OutOrStdout(), entry, a.flags.Format)
		},
	}
	a.addLookupFlags(cmd)
	cmd.Flags().StringVarP(&a.flags.Format, "format", "f", a.flags.Format, "Output format: text, json or yaml")
	return cmd
}

func (a *app) providersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List dictionary providers and language routing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := a.newProcessor(cmd.Context())
			if err != nil {
				return err
			}
			defer proc.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Providers:")
			for _, info := range proc.Registry().Providers() {
				fmt.Fprintf(out, "  %-8s %s\n", info.ID, info.Name)
			}

			fmt.Fprintln(out, "\nLanguages:")
			for _, lang := range proc.Languages() {
				id, _, err := proc.ResolveProvider("", lang)
				if err != nil {
					continue
				}
				fmt.Fprintf(out, "  %-8s -> %s\n", lang, id)
			}
			return nil
		},
	}
}

func (a *app) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <word>",
		Short: "Look a word up and add it to Anki through AnkiConnect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := a.newProcessor(cmd.Context())
			if err != nil {
				return err
			}
			defer proc.Close()

			entry, err := a.lookup(cmd.Context(), proc, args[0])
			if err != nil {
				return err
			}

			// --def is 1-based, 0 keeps every definition
			id, err := proc.AddNote(cmd.Context(), entry, a.flags.DefIndex-1, anki.NoteOptions{
				Deck:     a.flags.Deck,
				NoteType: a.flags.NoteType,
				Context:  a.flags.Context,
			})
			if err != nil {
				return err
			}

			deck := a.flags.Deck
			if deck == "" {
				deck = proc.Anki().Config().Deck
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added note %d for '%s' to deck %s\n", id, entry.Word, deck)
			return nil
		},
	}
	a.addLookupFlags(cmd)
	cmd.Flags().IntVar(&a.flags.DefIndex, "def", 0, "Only use definition N (1-based); 0 uses all")
	cmd.Flags().StringVar(&a.flags.Context, "context", "", "Sentence the word was seen in")
	cmd.Flags().StringVar(&a.flags.Deck, "deck", "", "Target deck (default from anki.deck)")
	cmd.Flags().StringVar(&a.flags.NoteType, "note-type", "", "Note type (default from anki.note_type)")
	return cmd
}

func (a *app) newAnkiClient() (*anki.ConnectClient, error) {
	cfg, err := ProcessorConfig()
	if err != nil {
		return nil, err
	}
	return anki.NewConnectClient(cfg.Anki, nil, a.logger.Named("anki")), nil
}

func (a *app) ankiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anki",
		Short: "Query the local Anki collection through AnkiConnect",
	}

	printList := func(use, short string, args cobra.PositionalArgs, list func(context.Context, *anki.ConnectClient, []string) ([]string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := a.newAnkiClient()
				if err != nil {
					return err
				}
				items, err := list(cmd.Context(), client, args)
				if err != nil {
					return err
				}
				for _, item := range items {
					fmt.Fprintln(cmd.OutOrStdout(), item)
				}
				return nil
			},
		}
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Check that AnkiConnect is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newAnkiClient()
			if err != nil {
				return err
			}
			version, err := client.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AnkiConnect is available at %s (API version %d)\n", client.Config().URL, version)
			return nil
		},
	}

	cmd.AddCommand(
		check,
		printList("decks", "List deck names", cobra.NoArgs,
			func(ctx context.Context, c *anki.ConnectClient, _ []string) ([]string, error) {
				return c.DeckNames(ctx)
			}),
		printList("models", "List note type names", cobra.NoArgs,
			func(ctx context.Context, c *anki.ConnectClient, _ []string) ([]string, error) {
				return c.ModelNames(ctx)
			}),
		printList("fields <model>", "List the fields of a note type", cobra.ExactArgs(1),
			func(ctx context.Context, c *anki.ConnectClient, args []string) ([]string, error) {
				return c.ModelFieldNames(ctx, args[0])
			}),
	)
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Look up a list of words and write an Anki package",
		Long: `Reads one word per line, optionally followed by "= context", looks each
one up and writes an .apkg (or a CSV with --csv). Words that fail are
reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := batch.ReadBatchFile(a.flags.BatchFile)
			if err != nil {
				return err
			}
			if len(words) == 0 {
				return errors.New("batch file contains no words")
			}

			proc, err := a.newProcessor(cmd.Context())
			if err != nil {
				return err
			}
			defer proc.Close()

			outputDir := a.flags.OutputDir
			if outputDir == "" {
				outputDir = viper.GetString("export.output_dir")
			}

			result, err := proc.Export(cmd.Context(), words, processor.ExportOptions{
				Deck:      a.flags.Deck,
				OutputDir: outputDir,
				CSV:       a.flags.CSV,
				Language:  a.flags.Language,
				Provider:  a.flags.Provider,
				SkipAudio: a.flags.SkipAudio,
			})

			out := cmd.OutOrStdout()
			if result != nil {
				for _, failed := range result.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error processing '%s': %v\n", failed.Word, failed.Err)
				}
			}
			if err != nil {
				return err
			}

			// Print summary
			fmt.Fprintf(out, "\n=== Export Summary ===\n")
			fmt.Fprintf(out, "Total words: %d\n", len(words))
			fmt.Fprintf(out, "Exported: %d (%d with audio)\n", result.Exported, result.WithAudio)
			if len(result.Failed) > 0 {
				fmt.Fprintf(out, "Errors: %d\n", len(result.Failed))
			}
			fmt.Fprintf(out, "Package: %s\n", result.Path)
			if result.Archived != "" {
				fmt.Fprintf(out, "Previous package archived to: %s\n", result.Archived)
			}
			return nil
		},
	}
	a.addLookupFlags(cmd)
	cmd.Flags().StringVar(&a.flags.BatchFile, "batch", "", "Word list, one 'word' or 'word = context' per line")
	cmd.Flags().StringVar(&a.flags.Deck, "deck", "", "Deck name (default from anki.deck)")
	cmd.Flags().StringVarP(&a.flags.OutputDir, "output", "o", "", "Output directory (default from export.output_dir)")
	cmd.Flags().BoolVar(&a.flags.CSV, "csv", false, "Write a CSV for Anki's text importer instead of an .apkg")
	cmd.Flags().BoolVar(&a.flags.SkipAudio, "skip-audio", false, "Do not download pronunciation audio")
	cmd.MarkFlagRequired("batch")
	return cmd
}

// NewSurfaceServer serves the parsers in table on domparse.ParsePath
func NewSurfaceServer(addr string, table *domparse.Table, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(domparse.ParsePath, domparse.NewSurfaceHandler(table, logger))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *app) surfaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Serve the remote parse surface over HTTP",
		Long: `Runs an HTTP endpoint that parses dictionary HTML for other ankilex
instances configured with parser.mode remote and parser.surface_url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := a.newProcessor(cmd.Context())
			if err != nil {
				return err
			}
			defer proc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := NewSurfaceServer(a.flags.Listen, proc.Table(), a.logger.Named("surface"))
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Parse surface listening on %s%s\n", a.flags.Listen, domparse.ParsePath)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down parse surface: %w", err)
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&a.flags.Listen, "listen", a.flags.Listen, "Address to listen on")
	return cmd
}

func (a *app) modelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List OpenAI chat models usable by the openai provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lister := models.NewLister(GetOpenAIKey(), viper.GetString("openai.base_url"))
			return lister.ListAvailableModels(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) newAudioFetcher() (*audio.Fetcher, string, error) {
	cfg, err := ProcessorConfig()
	if err != nil {
		return nil, "", err
	}
	if cfg.AudioCacheDir == "" {
		return nil, "", errors.New("no audio cache directory configured (export.audio_cache)")
	}
	client := fetch.NewClient(cfg.HTTP, nil, a.logger.Named("fetch"))
	f, err := audio.NewFetcher(client, cfg.AudioCacheDir, a.logger.Named("audio"))
	return f, cfg.AudioCacheDir, err
}

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the pronunciation audio cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached audio files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, dir, err := a.newAudioFetcher()
			if err != nil {
				return err
			}
			count, size, err := f.CacheStats()
			if err != nil {
				return fmt.Errorf("failed to read audio cache: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio cache: %s\n", dir)
			fmt.Fprintf(out, "Cached files: %d (%d bytes)\n", count, size)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached audio file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, dir, err := a.newAudioFetcher()
			if err != nil {
				return err
			}
			if err := f.ClearCache(); err != nil {
				return fmt.Errorf("failed to clear audio cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Audio cache cleared: %s\n", dir)
			return nil
		},
	}

	cmd.AddCommand(stats, clearCmd)
	return cmd
}
