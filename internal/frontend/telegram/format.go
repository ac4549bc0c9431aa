package telegram

import (
	"fmt"
	"math"
	"strings"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

const noSynopsis = "No synopsis available."

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// RatingBar renders a 0-10 vote average as a bar of the given width.
func RatingBar(vote float64, width int) string {
	if width < 1 {
		width = 10
	}
	filled := int(math.Round(vote / 10 * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return fmt.Sprintf("[%s%s] %.1f",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		vote,
	)
}

// FormatList renders the browse screen sections as MarkdownV2.
func FormatList(st viewstate.ListState) string {
	var sb strings.Builder
	writeSection(&sb, "Now Playing", st.NowPlaying)
	if len(st.ComingSoon) > 0 {
		sb.WriteString("\n")
		writeSection(&sb, "Coming Soon", st.ComingSoon)
	}
	if len(st.NowPlaying) == 0 && len(st.ComingSoon) == 0 {
		return EscapeMdV2("No popular movies right now.")
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, movies []core.Movie) {
	sb.WriteString(FormatBold(title))
	sb.WriteString("\n")
	for i, m := range movies {
		line := fmt.Sprintf("%d. %s", i+1, m.Title)
		if y := m.Year(); y != "" {
			line += " (" + y + ")"
		}
		line += " ★ " + m.RatingLabel()
		sb.WriteString(EscapeMdV2(line))
		sb.WriteString("\n")
	}
}

// FormatCaption renders the detail header shown under the poster.
func FormatCaption(m core.Movie) string {
	var sb strings.Builder
	sb.WriteString(FormatBold(m.Title))
	if y := m.Year(); y != "" {
		sb.WriteString(EscapeMdV2(" (" + y + ")"))
	}
	sb.WriteString("\n")
	sb.WriteString(EscapeMdV2(RatingBar(m.VoteAverage, 10)))

	var meta []string
	if r := m.RuntimeLabel(); r != "" {
		meta = append(meta, r)
	}
	if g := m.GenreNames(3); len(g) > 0 {
		meta = append(meta, strings.Join(g, ", "))
	}
	if len(meta) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatItalic(strings.Join(meta, " · ")))
	}
	return sb.String()
}

// FormatSynopsis renders the truncated synopsis of a loaded detail state.
func FormatSynopsis(st viewstate.DetailState) string {
	if st.Synopsis == "" {
		return FormatItalic(noSynopsis)
	}
	return EscapeMdV2(st.Synopsis)
}

// FormatOverview renders the full overview.
func FormatOverview(m core.Movie) string {
	if m.Overview == "" {
		return FormatItalic(noSynopsis)
	}
	return FormatBold(m.Title) + "\n" + EscapeMdV2(m.Overview)
}

// errorText maps a failure kind onto a chat message.
func errorText(kind viewstate.ErrorKind) string {
	switch kind {
	case viewstate.KindNotFound:
		return "Movie not found."
	case viewstate.KindNetwork:
		return "Can't reach the movie service. Check the connection and try again."
	case viewstate.KindUpstream:
		return "The movie service returned an error. Please try again later."
	default:
		return errorMsg
	}
}
