package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/internal/catalog/service"
	"github.com/narwhalmedia/watchlist/pkg/errors"
)

func parseKey(args []string) (string, int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return "", 0, errors.Validationf("year must be a number, got %q", args[1])
	}
	return args[0], year, nil
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var kind, status, sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			svc := app.Service
			c := cmd.Context()

			var titles []domain.Title
			switch {
			case kind != "":
				k, perr := domain.ParseKind(kind)
				if perr != nil {
					return perr
				}
				titles, err = svc.FilterByKind(c, k)
			case status != "":
				st, perr := domain.ParseStatus(status)
				if perr != nil {
					return perr
				}
				titles, err = svc.FilterByStatus(c, st)
			case sortBy == "rating":
				titles, err = svc.SortByRating(c)
			case sortBy == "year":
				titles, err = svc.SortByYear(c)
			case sortBy == "":
				titles, err = svc.ListTitles(c)
			default:
				return errors.Validationf("unknown sort %q (want rating or year)", sortBy)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTitles(titles))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only titles of this kind")
	cmd.Flags().StringVar(&status, "status", "", "Only titles with this status")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by rating or year, highest first")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find titles by name, genre, kind or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			titles, err := app.Service.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTitles(titles))
			return nil
		},
	}
}

// titleFlags collects the editable attributes of a title.
type titleFlags struct {
	name        string
	kind        string
	year        int
	genre       string
	rating      float64
	status      string
	progress    int
	total       int
	description string
}

func (f *titleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Title name")
	cmd.Flags().StringVar(&f.kind, "kind", string(domain.KindMovie), "Movie or Series")
	cmd.Flags().IntVar(&f.year, "year", 0, "Release year")
	cmd.Flags().StringVar(&f.genre, "genre", "", "Genre")
	cmd.Flags().Float64Var(&f.rating, "rating", 0, "Your rating, 0 to 10")
	cmd.Flags().StringVar(&f.status, "status", "", "Planned, InProgress, Completed or Favorite")
	cmd.Flags().IntVar(&f.progress, "progress", 0, "Units watched")
	cmd.Flags().IntVar(&f.total, "total", 1, "Total units (episodes or seasons)")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
}

// apply overwrites the fields of t whose flags were set on cmd.
func (f *titleFlags) apply(cmd *cobra.Command, t domain.Title) (domain.Title, error) {
	changed := cmd.Flags().Changed
	if changed("name") {
		t.Name = f.name
	}
	if changed("kind") || t.Kind == "" {
		k, err := domain.ParseKind(f.kind)
		if err != nil {
			return domain.Title{}, err
		}
		t.Kind = k
	}
	if changed("year") {
		t.ReleaseYear = f.year
	}
	if changed("genre") {
		t.Genre = f.genre
	}
	if changed("rating") {
		t.UserRating = f.rating
	}
	if changed("status") {
		st, err := domain.ParseStatus(f.status)
		if err != nil {
			return domain.Title{}, err
		}
		t.Status = st
	}
	if changed("progress") {
		t.Progress = f.progress
	}
	if changed("total") || t.TotalUnits == 0 {
		t.TotalUnits = f.total
	}
	if changed("description") {
		t.Description = f.description
	}
	return t, nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		flags titleFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a title to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			t, err := flags.apply(cmd, domain.Title{})
			if err != nil {
				return err
			}

			var opts []service.AddOption
			if force {
				opts = append(opts, service.AllowDuplicate())
			}
			added, err := app.Service.AddTitle(cmd.Context(), t, opts...)
			if errors.IsConflict(err) {
				return fmt.Errorf("%w (use --force to add it anyway)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTitle(added))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Add even if the name and year already exist")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var (
		flags titleFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "edit <name> <year>",
		Short: "Change a title; renaming or changing the year replaces it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			name, year, err := parseKey(args)
			if err != nil {
				return err
			}

			current, err := app.Service.GetTitle(cmd.Context(), name, year)
			if err != nil {
				return err
			}
			t, err := flags.apply(cmd, current)
			if err != nil {
				return err
			}

			var opts []service.AddOption
			if force {
				opts = append(opts, service.AllowDuplicate())
			}
			saved, err := app.Service.ReplaceTitle(cmd.Context(), name, year, t, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTitle(saved))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Allow the new name and year to collide with an existing title")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name> <year>",
		Short: "Remove a title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			name, year, err := parseKey(args)
			if err != nil {
				return err
			}
			if err := app.Service.DeleteTitle(cmd.Context(), name, year); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", domain.Key{Name: name, Year: year})
			return nil
		},
	}
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Step watch progress",
	}

	step := func(use, short string, fn func(*service.CatalogService, context.Context, string, int) (domain.Title, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <name> <year>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := ctx.ensureApp()
				if err != nil {
					return err
				}
				name, year, err := parseKey(args)
				if err != nil {
					return err
				}
				t, err := fn(app.Service, cmd.Context(), name, year)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d %s\n", t.Key(), t.Progress, t.TotalUnits, t.Status)
				return nil
			},
		}
	}

	cmd.AddCommand(step("inc", "Mark one more unit watched", (*service.CatalogService).IncrementProgress))
	cmd.AddCommand(step("dec", "Unmark the last watched unit", (*service.CatalogService).DecrementProgress))
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <name> <year> <status>",
		Short: "Set a status; Favorite sticks, others follow progress",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			name, year, err := parseKey(args)
			if err != nil {
				return err
			}
			t, err := app.Service.SetStatus(cmd.Context(), name, year, domain.Status(args[2]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.Key(), t.Status)
			return nil
		},
	}
}
