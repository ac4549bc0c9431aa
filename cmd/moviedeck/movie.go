package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/metadata/tmdb"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

const noSynopsis = "No synopsis available."

func newMovieCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "Show details for one movie",
		Long:  "Show the detail screen for a TMDb movie id, e.g. moviedeck movie 550.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg.App.LogLevel, nil)

			catalog, err := initCatalog(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runMovie(ctx, catalog, logger, cmd.OutOrStdout(), id, full)
		},
	}
	cmd.Flags().BoolVarP(&full, "full", "f", false, "print the whole synopsis")
	return cmd
}

// runMovie activates a detail screen for id once and prints where it settled.
func runMovie(ctx context.Context, catalog core.Catalog, logger *slog.Logger, w io.Writer, id int, full bool) error {
	detail := viewstate.NewDetail(catalog, logger)
	st, ok := viewstate.Final(detail.Activate(ctx, id))
	if !ok {
		return ctx.Err()
	}
	if st.Status == viewstate.StatusFailed {
		if st.Kind == viewstate.KindNotFound {
			return fmt.Errorf("%w: %d", errMovieNotFound, id)
		}
		return fmt.Errorf("%s", failureMessage(st.Kind, st.Err))
	}

	fmt.Fprint(w, renderDetail(st, full))
	return nil
}

// renderDetail lays out a loaded detail state for the terminal.
func renderDetail(st viewstate.DetailState, full bool) string {
	m := *st.Movie
	var sb strings.Builder

	title := styleTitle.Render(m.Title)
	if y := m.Year(); y != "" {
		title += styleDim.Render(" (" + y + ")")
	}
	sb.WriteString(title + "\n")

	var meta []string
	if r := m.RuntimeLabel(); r != "" {
		meta = append(meta, r)
	}
	if g := m.GenreNames(0); len(g) > 0 {
		meta = append(meta, strings.Join(g, ", "))
	}
	sb.WriteString(styleRating.Render("★ " + m.RatingLabel()))
	if len(meta) > 0 {
		sb.WriteString("  " + styleDim.Render(strings.Join(meta, " · ")))
	}
	sb.WriteString("\n\n")

	switch {
	case m.Overview == "":
		sb.WriteString(styleDim.Render(noSynopsis))
	case full:
		sb.WriteString(m.Overview)
	default:
		sb.WriteString(st.Synopsis)
		if st.HasMore {
			sb.WriteString("\n" + styleDim.Render("(use --full for the whole synopsis)"))
		}
	}
	sb.WriteString("\n")

	if url := tmdb.PosterURL(m.PosterPath, tmdb.PosterSize); url != "" {
		sb.WriteString("\n" + styleInfo.Render(url) + "\n")
	}
	return sb.String()
}

func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie id %q: must be a positive integer", s)
	}
	return id, nil
}
