package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/internal/catalog/service"
	"github.com/narwhalmedia/watchlist/pkg/config"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var add, force bool

	cmd := &cobra.Command{
		Use:   "lookup <title or tmdb id>",
		Short: "Fetch a draft from TMDB, optionally adding it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			query := strings.TrimSpace(args[0])

			if add {
				var opts []service.AddOption
				if force {
					opts = append(opts, service.AllowDuplicate())
				}
				t, err := app.Service.LookupAndAdd(cmd.Context(), query, opts...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTitle(t))
				return nil
			}

			var draft domain.Title
			if id, perr := strconv.ParseInt(query, 10, 64); perr == nil && id > 0 {
				draft, err = app.Service.LookupByID(cmd.Context(), id)
			} else {
				draft, err = app.Service.LookupByTitle(cmd.Context(), query)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTitle(draft))
			return nil
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "Add the draft to the catalog")
	cmd.Flags().BoolVar(&force, "force", false, "With --add, add even if the name and year already exist")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			stats, err := app.Service.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Titles", strconv.Itoa(stats.Total)},
				{"Movies", strconv.Itoa(stats.Movies)},
				{"Series", strconv.Itoa(stats.Series)},
			}
			for _, st := range domain.Statuses {
				rows = append(rows, []string{string(st), strconv.Itoa(stats.ByStatus[st])})
			}
			rows = append(rows,
				[]string{"Average rating", fmt.Sprintf("%.1f", stats.AverageRating)},
				[]string{"Series units", fmt.Sprintf("%d/%d", stats.SeriesUnitsWatched, stats.SeriesUnitsTotal)},
				[]string{"Series completion", fmt.Sprintf("%.1f%%", stats.SeriesCompletion)},
			)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	var toSink bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog in the flat-file format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			if toSink {
				key, err := app.Service.ExportSnapshot(cmd.Context(), app.Sink)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot stored as %s\n", key)
				return nil
			}

			if output == "" || output == "-" {
				return app.Service.Export(cmd.Context(), cmd.OutOrStdout())
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return errors.StorageUnavailable("create export directory", err)
			}
			f, err := os.Create(output)
			if err != nil {
				return errors.StorageUnavailable("create "+output, err)
			}
			if err := app.Service.Export(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.StorageUnavailable("close "+output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&toSink, "snapshot", false, "Store a timestamped snapshot in the configured sink")
	return cmd
}

func newSnapshotsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List stored catalog snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			keys, err := app.Sink.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func newTransferCommand(ctx *commandContext) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Copy every title into another backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			target = strings.ToLower(strings.TrimSpace(target))
			if target == app.Service.Backend() {
				return errors.Validationf("catalog already uses the %s backend", target)
			}

			titles, err := app.Service.ListTitles(cmd.Context())
			if err != nil {
				return err
			}

			dest, err := openStore(app.Config, target, app.Logger, app.Logger.Zap())
			if err != nil {
				return err
			}
			source := app.Service.UseStore(dest)
			defer func() {
				app.Service.UseStore(source)
				_ = dest.Close()
			}()

			copied, skipped := 0, 0
			for _, t := range titles {
				_, err := app.Service.AddTitle(cmd.Context(), t)
				switch {
				case errors.IsConflict(err):
					skipped++
				case err != nil:
					return err
				default:
					copied++
				}
			}

			app.Logger.Info("Catalog transferred",
				interfaces.String("to", target),
				interfaces.Int("copied", copied),
				interfaces.Int("skipped", skipped))
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d titles to %s (%d already present)\n", copied, target, skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", config.BackendSQLite, "Target backend (file, sqlite, postgres)")
	return cmd
}
