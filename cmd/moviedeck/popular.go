package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

func newPopularCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Show popular movies",
		Long:  "Show today's popular movies split into Now Playing and Coming Soon.",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			return runPopular(ctx, catalog, logger, cmd.OutOrStdout(), all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "also list every movie on the first page")
	return cmd
}

// runPopular activates a list screen once and prints where it settled.
func runPopular(ctx context.Context, catalog core.Catalog, logger *slog.Logger, w io.Writer, all bool) error {
	list := viewstate.NewList(catalog, logger)
	st, ok := viewstate.Final(list.Activate(ctx))
	if !ok {
		return ctx.Err()
	}
	if st.Status == viewstate.StatusFailed {
		return fmt.Errorf("%s", failureMessage(st.Kind, st.Err))
	}

	if len(st.Movies) == 0 {
		fmt.Fprintln(w, styleDim.Render("No popular movies right now."))
		return nil
	}

	printSection(w, "Now Playing", st.NowPlaying, 1)
	if len(st.ComingSoon) > 0 {
		printSection(w, "Coming Soon", st.ComingSoon, len(st.NowPlaying)+1)
	}
	if all {
		printSection(w, "All Popular", st.Movies, 1)
	}
	return nil
}

func printSection(w io.Writer, title string, movies []core.Movie, first int) {
	fmt.Fprintln(w, styleHeader.Render(title))
	for i, m := range movies {
		fmt.Fprintln(w, movieLine(first+i, m))
	}
	fmt.Fprintln(w)
}

// movieLine renders "N. Title (Year)  ★ 7.5  #id".
func movieLine(index int, m core.Movie) string {
	var sb strings.Builder
	sb.WriteString(styleDim.Render(fmt.Sprintf("%2d.", index)))
	sb.WriteString(" ")
	sb.WriteString(styleTitle.Render(m.Title))
	if y := m.Year(); y != "" {
		sb.WriteString(" (" + y + ")")
	}
	sb.WriteString("  ")
	sb.WriteString(styleRating.Render("★ " + m.RatingLabel()))
	sb.WriteString("  ")
	sb.WriteString(styleDim.Render(fmt.Sprintf("#%d", m.ID)))
	return sb.String()
}
