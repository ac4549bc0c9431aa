package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

// fakeAPI records everything the bot sends.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  func(tgbotapi.Chattable) error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type mockCatalog struct {
	popular    []core.Movie
	popularErr error
	details    map[int]core.Movie
	detCalls   atomic.Int32
}

func (m *mockCatalog) FetchPopular(_ context.Context) ([]core.Movie, error) {
	return m.popular, m.popularErr
}

func (m *mockCatalog) FetchDetail(_ context.Context, id int) (core.Movie, error) {
	m.detCalls.Add(1)
	mv, ok := m.details[id]
	if !ok {
		return core.Movie{}, &core.NotFoundError{ID: id}
	}
	return mv, nil
}

func newTestBot(catalog *mockCatalog, allowed ...int64) (*Bot, *fakeAPI) {
	api := &fakeAPI{}
	return &Bot{
		api:      api,
		catalog:  catalog,
		sessions: newSessionManager(allowed),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, api
}

func testCatalog() *mockCatalog {
	popular := make([]core.Movie, 9)
	for i := range popular {
		popular[i] = core.Movie{ID: i + 1, Title: fmt.Sprintf("Movie %d", i+1), ReleaseDate: "2024-01-01", VoteAverage: 7}
	}
	return &mockCatalog{
		popular: popular,
		details: map[int]core.Movie{
			550: {ID: 550, Title: "Fight Club", PosterPath: "/fc.jpg", Overview: "Short.", VoteAverage: 8.4},
			27205: {ID: 27205, Title: "Inception", Overview: strings.Repeat("dream ", 30),
				Genres: []core.Genre{{ID: 28, Name: "Action"}}},
		},
	}
}

func textMessage(chatID, userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func callbackQuery(chatID, userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}
}

func TestHandleMessage_Popular(t *testing.T) {
	b, api := newTestBot(testCatalog())
	b.handleMessage(context.Background(), textMessage(1, 1, "/popular"))

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("expected MarkdownV2, got %q", msg.ParseMode)
	}
	if !strings.Contains(msg.Text, "Now Playing") || !strings.Contains(msg.Text, "Coming Soon") {
		t.Errorf("expected both sections, got %q", msg.Text)
	}

	kb, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", msg.ReplyMarkup)
	}
	if len(kb.InlineKeyboard) != 8 {
		t.Errorf("expected 8 buttons (5 now playing + 3 coming soon), got %d", len(kb.InlineKeyboard))
	}
	if got := *kb.InlineKeyboard[5][0].CallbackData; got != "mv:6" {
		t.Errorf("expected first coming soon button mv:6, got %q", got)
	}
}

func TestHandleMessage_PopularFailure(t *testing.T) {
	cat := testCatalog()
	cat.popularErr = &core.NetworkError{Op: "GET /movie/popular", Err: errors.New("dial tcp: refused")}
	b, api := newTestBot(cat)
	b.handleMessage(context.Background(), textMessage(1, 1, "/popular"))

	msgs := api.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "Can't reach the movie service") {
		t.Fatalf("expected network error message, got %+v", msgs)
	}
}

func TestHandleCallback_OpensDetail(t *testing.T) {
	b, api := newTestBot(testCatalog())
	b.handleCallback(context.Background(), callbackQuery(1, 1, "mv:550"))

	photos := api.photos()
	if len(photos) != 1 {
		t.Fatalf("expected 1 poster, got %d", len(photos))
	}
	if url, _ := photos[0].File.(tgbotapi.FileURL); string(url) != "https://image.tmdb.org/t/p/w500/fc.jpg" {
		t.Errorf("unexpected poster url %q", url)
	}
	if !strings.Contains(photos[0].Caption, "Fight Club") {
		t.Errorf("expected title in caption, got %q", photos[0].Caption)
	}

	msgs := api.messages()
	if len(msgs) != 1 || msgs[0].Text != EscapeMdV2("Short.") {
		t.Fatalf("expected synopsis message, got %+v", msgs)
	}
	if msgs[0].ReplyMarkup != nil {
		t.Error("short synopsis must not offer a More button")
	}
	if len(api.requests) < 1 {
		t.Error("expected callback to be acknowledged")
	}
}

func TestHandleMessage_MovieWithLongSynopsis(t *testing.T) {
	b, api := newTestBot(testCatalog())
	b.handleMessage(context.Background(), textMessage(1, 1, "/movie 27205"))

	// no poster path: caption goes out as a message, then the synopsis
	msgs := api.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected caption and synopsis messages, got %d", len(msgs))
	}
	synopsis := msgs[1]
	if !strings.HasSuffix(synopsis.Text, EscapeMdV2("...")) {
		t.Errorf("expected truncated synopsis, got %q", synopsis.Text)
	}
	kb, ok := synopsis.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected More keyboard, got %T", synopsis.ReplyMarkup)
	}
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != "more:27205" {
		t.Errorf("expected more:27205, got %q", got)
	}
}

func TestHandleMessage_MoreReusesLoadedRecord(t *testing.T) {
	cat := testCatalog()
	b, api := newTestBot(cat)
	b.handleMessage(context.Background(), textMessage(1, 1, "/movie 27205"))
	b.handleCallback(context.Background(), callbackQuery(1, 1, "more:27205"))

	if n := cat.detCalls.Load(); n != 1 {
		t.Errorf("expected 1 detail fetch, got %d", n)
	}
	msgs := api.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Text, EscapeMdV2(strings.Repeat("dream ", 30)[:150])) {
		t.Errorf("expected full overview, got %q", last.Text)
	}
}

func TestHandleMessage_MovieNotFound(t *testing.T) {
	b, api := newTestBot(testCatalog())
	b.handleMessage(context.Background(), textMessage(1, 1, "/movie 404"))

	msgs := api.messages()
	if len(msgs) != 1 || msgs[0].Text != "Movie not found." {
		t.Fatalf("expected not found message, got %+v", msgs)
	}
}

func TestHandleMessage_Commands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"start", "/start", "Welcome to moviedeck"},
		{"movie without id", "/movie", "Usage: /movie <id>"},
		{"movie bad id", "/movie abc", "Usage: /movie <id>"},
		{"more without id", "/more", "Usage: /more <id>"},
		{"reset", "/reset", "Session reset"},
		{"unknown", "hello", "/popular"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api := newTestBot(testCatalog())
			b.handleMessage(context.Background(), textMessage(1, 1, tt.text))
			msgs := api.messages()
			if len(msgs) != 1 || !strings.Contains(msgs[0].Text, tt.want) {
				t.Errorf("expected message containing %q, got %+v", tt.want, msgs)
			}
		})
	}
}

func TestHandleMessage_Unauthorized(t *testing.T) {
	cat := testCatalog()
	b, api := newTestBot(cat, 100)
	b.handleMessage(context.Background(), textMessage(1, 200, "/movie 550"))

	msgs := api.messages()
	if len(msgs) != 1 || msgs[0].Text != unauthorizedMsg {
		t.Fatalf("expected unauthorized message, got %+v", msgs)
	}
	if cat.detCalls.Load() != 0 {
		t.Error("unauthorized users must not trigger fetches")
	}

	b.handleCallback(context.Background(), callbackQuery(1, 200, "mv:550"))
	if cat.detCalls.Load() != 0 {
		t.Error("unauthorized callbacks must not trigger fetches")
	}
}

func TestSendMarkdown_FallsBackToPlain(t *testing.T) {
	b, api := newTestBot(testCatalog())
	api.sendErr = func(c tgbotapi.Chattable) error {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ParseMode == tgbotapi.ModeMarkdownV2 {
			return errors.New("Bad Request: can't parse entities")
		}
		return nil
	}

	b.sendMarkdown(1, EscapeMdV2("Dune (2021)."), nil)

	msgs := api.messages()
	if len(msgs) != 1 || msgs[0].Text != "Dune (2021)." || msgs[0].ParseMode != "" {
		t.Fatalf("expected plain fallback, got %+v", msgs)
	}
}

func TestBuildMovieKeyboard_Empty(t *testing.T) {
	if kb := buildMovieKeyboard(viewstate.ListState{}); kb != nil {
		t.Error("expected nil keyboard for empty list")
	}
}

func TestParseMovieID(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-5", "1.5"} {
		if _, err := parseMovieID(in); err == nil {
			t.Errorf("parseMovieID(%q) expected error", in)
		}
	}
	if id, err := parseMovieID(" 550 "); err != nil || id != 550 {
		t.Errorf("parseMovieID(\" 550 \") = %d, %v", id, err)
	}
}
