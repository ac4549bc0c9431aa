package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/metadata/tmdb"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	errorMsg        = "An error occurred while processing your request. Please try again."
	resetMsg        = "Session reset. Send /popular to start over."
	helpMsg         = "Commands:\n/popular - now playing and coming soon\n/movie <id> - movie details\n/more <id> - full synopsis\n/reset - start over"

	movieCallbackPrefix = "mv:"   // opens the detail screen
	moreCallbackPrefix  = "more:" // shows the full overview

	maxButtonLabel = 30 // max characters in inline keyboard button label
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/start":
		b.sendText(chatID, "Welcome to moviedeck! Browse today's popular movies.\n\n"+helpMsg)
	case "/help":
		b.sendText(chatID, helpMsg)
	case "/reset":
		b.sessions.reset(chatID)
		b.sendText(chatID, resetMsg)
	case "/popular":
		b.showPopular(ctx, chatID)
	case "/movie":
		id, err := parseMovieID(arg)
		if err != nil {
			b.sendText(chatID, "Usage: /movie <id>")
			return
		}
		b.showDetail(ctx, chatID, id)
	case "/more":
		id, err := parseMovieID(arg)
		if err != nil {
			b.sendText(chatID, "Usage: /more <id>")
			return
		}
		b.showOverview(ctx, chatID, id)
	default:
		b.sendText(chatID, helpMsg)
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	callback := tgbotapi.NewCallback(cq.ID, "")
	b.api.Request(callback) //nolint:errcheck // best-effort ack

	if !b.sessions.isAllowed(userID) {
		return
	}

	switch {
	case strings.HasPrefix(cq.Data, movieCallbackPrefix):
		id, err := parseMovieID(strings.TrimPrefix(cq.Data, movieCallbackPrefix))
		if err != nil {
			return
		}
		b.showDetail(ctx, chatID, id)
	case strings.HasPrefix(cq.Data, moreCallbackPrefix):
		id, err := parseMovieID(strings.TrimPrefix(cq.Data, moreCallbackPrefix))
		if err != nil {
			return
		}
		b.showOverview(ctx, chatID, id)
	}
}

func (b *Bot) session(chatID int64) *session {
	return b.sessions.getOrCreate(chatID, func() *session {
		return newSession(b.catalog, b.logger.With(slog.Int64("chat_id", chatID)))
	})
}

// showPopular activates the chat's list screen and sends both sections.
func (b *Bot) showPopular(ctx context.Context, chatID int64) {
	b.typing(chatID)

	st, ok := viewstate.Final(b.session(chatID).list.Activate(ctx))
	if !ok {
		return // superseded by a reset
	}
	if st.Status == viewstate.StatusFailed {
		b.sendText(chatID, errorText(st.Kind))
		return
	}

	b.sendMarkdown(chatID, FormatList(st), buildMovieKeyboard(st))
}

// showDetail activates the chat's detail screen for id.
func (b *Bot) showDetail(ctx context.Context, chatID int64, id int) {
	b.typing(chatID)

	st, ok := viewstate.Final(b.session(chatID).detail.Activate(ctx, id))
	if !ok {
		return // superseded by another movie or a reset
	}
	if st.Status == viewstate.StatusFailed {
		b.sendText(chatID, errorText(st.Kind))
		return
	}

	m := *st.Movie
	b.SendPoster(chatID, m.PosterPath, FormatCaption(m))

	var kb *tgbotapi.InlineKeyboardMarkup
	if st.HasMore {
		k := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("More", moreCallbackPrefix+strconv.Itoa(m.ID)),
		))
		kb = &k
	}
	b.sendMarkdown(chatID, FormatSynopsis(st), kb)
}

// showOverview sends the full overview, reusing the loaded record when the
// detail screen already shows id.
func (b *Bot) showOverview(ctx context.Context, chatID int64, id int) {
	detail := b.session(chatID).detail
	st := detail.State()
	if st.Status != viewstate.StatusLoaded || st.ID != id {
		var ok bool
		st, ok = viewstate.Final(detail.Activate(ctx, id))
		if !ok {
			return
		}
	}
	if st.Status == viewstate.StatusFailed {
		b.sendText(chatID, errorText(st.Kind))
		return
	}
	b.sendMarkdown(chatID, FormatOverview(*st.Movie), nil)
}

// buildMovieKeyboard builds one button per listed movie. Returns nil for an empty list.
func buildMovieKeyboard(st viewstate.ListState) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, section := range [][]core.Movie{st.NowPlaying, st.ComingSoon} {
		for _, m := range section {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(m.ShortTitle(maxButtonLabel), movieCallbackPrefix+strconv.Itoa(m.ID)),
			))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// sendMarkdown sends MarkdownV2 text, falling back to plain text when Telegram rejects it.
func (b *Bot) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		plain := tgbotapi.NewMessage(chatID, unescapeMdV2(text))
		if kb != nil {
			plain.ReplyMarkup = kb
		}
		if _, err := b.api.Send(plain); err != nil {
			b.logger.Error("failed to send message",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) typing(chatID int64) {
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}

// SendPoster sends a movie poster photo with a MarkdownV2 caption.
// Movies without a poster get the caption as a text message.
func (b *Bot) SendPoster(chatID int64, posterPath, caption string) {
	url := tmdb.PosterURL(posterPath, tmdb.PosterSize)
	if url == "" {
		b.sendMarkdown(chatID, caption, nil)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Debug("failed to send poster",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		b.sendMarkdown(chatID, caption, nil)
	}
}

func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return id, nil
}

var mdV2Unescaper = strings.NewReplacer(`\\`, `\`, `\_`, "_", `\*`, "*", `\[`, "[", `\]`, "]",
	`\(`, "(", `\)`, ")", `\~`, "~", "\\`", "`", `\>`, ">", `\#`, "#", `\+`, "+", `\-`, "-",
	`\=`, "=", `\|`, "|", `\{`, "{", `\}`, "}", `\.`, ".", `\!`, "!")

// unescapeMdV2 reverses EscapeMdV2 for the plain-text fallback.
func unescapeMdV2(s string) string {
	return mdV2Unescaper.Replace(s)
}
