package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bturcotte520/FlashCards/internal/config"
	"github.com/bturcotte520/FlashCards/internal/db"
	"github.com/bturcotte520/FlashCards/internal/importer"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/repository/sqlite"
	"github.com/bturcotte520/FlashCards/internal/services"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	db       *db.DB
	progress repository.ProgressStore
	composer *session.Composer
	decks    services.DeckService
	study    services.StudyService
}

func (a *app) Close() error {
	return a.db.Close()
}

func openApp(dbPath string) (*app, error) {
	cfg := config.Load()
	params := cfg.SRSParameters()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	progressRepo := sqlite.NewProgressRepository(database.DB)
	deckRepo := sqlite.NewDeckRepository(database.DB)
	statsRepo := sqlite.NewSessionStatsRepository(database.DB)
	composer := session.NewComposer(progressRepo, params)

	return &app{
		db:       database,
		progress: progressRepo,
		composer: composer,
		decks:    services.NewDeckService(deckRepo, composer),
		study:    services.NewStudyService(deckRepo, composer, statsRepo, services.WithShuffle(false)),
	}, nil
}

func newRootCmd() *cobra.Command {
	var dbPath, logLevel string

	root := &cobra.Command{
		Use:           "flashctl",
		Short:         "Manage flashcard decks and study progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.SetDefault(logger.New(
				logger.WithOutput(cmd.ErrOrStderr()),
				logger.WithLevel(logger.ParseLevel(logLevel)),
			))
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", envOr("DB_PATH", "file:flashcards.db"), "sqlite database path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "log level: DEBUG|INFO|WARN|ERROR")

	root.AddCommand(newDecksCmd(&dbPath))
	root.AddCommand(newImportDeckCmd(&dbPath))
	root.AddCommand(newDueCmd(&dbPath))
	root.AddCommand(newReviewCmd(&dbPath))
	root.AddCommand(newExportProgressCmd(&dbPath))
	root.AddCommand(newImportProgressCmd(&dbPath))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newDecksCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List decks with card and due counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			if _, err := a.decks.RefreshDueCounts(ctx); err != nil {
				return err
			}
			decks, err := a.decks.ListDecks(ctx)
			if err != nil {
				return err
			}
			if len(decks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no decks")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tCARDS\tDUE")
			for _, d := range decks {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", d.ID, d.Name, d.CardCount, d.DueCount)
			}
			return w.Flush()
		},
	}
}

func newImportDeckCmd(dbPath *string) *cobra.Command {
	var deckID, name, sheet string

	cmd := &cobra.Command{
		Use:   "import-deck <file>",
		Short: "Import cards from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deckID == "" && strings.TrimSpace(name) == "" {
				return fmt.Errorf("either --deck or --name is required")
			}

			cfg := importer.DefaultConfig()
			if sheet != "" {
				cfg.SheetName = sheet
			}
			cards, res, err := importer.ReadDeckFile(args[0], cfg)
			if err != nil {
				return err
			}
			for _, msg := range res.Errors {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", msg)
			}
			if len(cards) == 0 {
				return fmt.Errorf("no cards found in %s", args[0])
			}

			a, err := openApp(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			if deckID == "" {
				deck, err := a.decks.CreateDeck(ctx, models.Deck{Name: name})
				if err != nil {
					return err
				}
				deckID = deck.ID
			}
			added, err := a.decks.AddCards(ctx, deckID, cards)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d cards into deck %s (%d rows skipped)\n", len(added), deckID, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&deckID, "deck", "", "existing deck id")
	cmd.Flags().StringVar(&name, "name", "", "name of a new deck to create")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default Sheet1)")
	return cmd
}

func newDueCmd(dbPath *string) *cobra.Command {
	var showNew bool

	cmd := &cobra.Command{
		Use:   "due <deck-id>",
		Short: "List cards due for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			var cards []models.Card
			if showNew {
				cards, err = a.study.NewCards(ctx, args[0])
			} else {
				cards, err = a.study.DueCards(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing to study")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range cards {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Front, c.Back)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&showNew, "new", false, "list cards never reviewed instead")
	return cmd
}

func newReviewCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "review <card-id> <quality>",
		Short: "Record a review of one card (quality 0-5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quality must be an integer: %q", args[1])
			}

			a, err := openApp(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.study.ReviewCard(context.Background(), args[0], q)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: next review %s (%s), ease %.2f\n",
				rec.CardID, rec.NextReview.Format("2006-01-02"), srs.FormatInterval(rec.Interval), rec.EaseFactor)
			return nil
		},
	}
}

func newExportProgressCmd(dbPath *string) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export-progress",
		Short: "Write all progress records as JSON or YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := importer.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := openApp(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			n, err := importer.ExportProgress(context.Background(), a.progress, w, f)
			if err != nil {
				return err
			}
			if out != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d progress records to %s\n", n, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportProgressCmd(dbPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import-progress <file>",
		Short: "Load progress records exported earlier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(args[0]), ".")
			}
			f, err := importer.ParseFormat(format)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			a, err := openApp(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := importer.ImportProgress(context.Background(), a.composer, file, f)
			if err != nil {
				return err
			}
			for _, msg := range res.Errors {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", msg)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d progress records\n", res.Imported, res.TotalProcessed)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "input format: json|yaml (default from file extension)")
	return cmd
}
