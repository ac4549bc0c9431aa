package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/metadata/tmdb"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

const (
	carouselCardWidth = 24 // terminal cells per Now Playing card, border included
	carouselTitleLen  = 20 // characters of title shown on a card
)

// newBrowseCmd returns the "browse" subcommand for the interactive TUI.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse popular movies interactively",
		Long: "Open the interactive browser.\n" +
			"←/→ move through Now Playing, ↑/↓ move through the full list, enter opens a movie,\n" +
			"esc goes back, r reloads, m toggles the full synopsis, q quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse initializes the catalog and starts the Bubble Tea browser.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs are discarded.
	logger := config.SetupLogger(cfg.App.LogLevel, io.Discard)
	catalog, err := initCatalog(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := newBrowseModel(ctx, viewstate.NewList(catalog, logger), viewstate.NewDetail(catalog, logger))
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

type screen int

const (
	screenList screen = iota
	screenDetail
)

type focusArea int

const (
	focusCarousel focusArea = iota
	focusList
)

// activateListMsg requests a list screen activation.
type activateListMsg struct{}

// listStateMsg carries one list state together with the stream it came from.
type listStateMsg struct {
	state  viewstate.ListState
	stream <-chan viewstate.ListState
}

// detailStateMsg carries one detail state together with the stream it came from.
type detailStateMsg struct {
	state  viewstate.DetailState
	stream <-chan viewstate.DetailState
}

// browseModel is the Bubble Tea model for the two movie screens.
type browseModel struct {
	ctx    context.Context
	list   *viewstate.List
	detail *viewstate.Detail

	listState    viewstate.ListState
	listStream   <-chan viewstate.ListState
	detailState  viewstate.DetailState
	detailStream <-chan viewstate.DetailState

	screen       screen
	focus        focusArea
	carousel     int // selected Now Playing card
	cursor       int // selected row of the full list
	fullSynopsis bool

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// newBrowseModel creates a browseModel on the list screen.
func newBrowseModel(ctx context.Context, list *viewstate.List, detail *viewstate.Detail) browseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:     ctx,
		list:    list,
		detail:  detail,
		spinner: s,
	}
}

// Init starts the spinner and asks Update to activate the list screen.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return activateListMsg{} })
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case activateListMsg:
		return m, m.activateList()

	case listStateMsg:
		if msg.stream != m.listStream {
			return m, nil // superseded stream
		}
		m.listState = msg.state
		m.clampSelection()
		return m, waitForList(msg.stream)

	case detailStateMsg:
		if msg.stream != m.detailStream {
			return m, nil
		}
		m.detailState = msg.state
		m.refreshDetail()
		return m, waitForDetail(msg.stream)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.screen == screenDetail && m.detailState.Movie == nil {
			m.refreshDetail()
		}
		return m, cmd
	}
	return m, nil
}

// handleResize adjusts the detail viewport on terminal resize.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	headerHeight := 2
	footerHeight := 2
	vpHeight := max(1, m.height-headerHeight-footerHeight)
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.refreshDetail()
}

// handleKey dispatches key events for the current screen.
func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.detail.Deactivate()
		m.list.Deactivate()
		return m, tea.Quit
	}
	if m.screen == screenDetail {
		return m.handleDetailKey(msg)
	}
	return m.handleListKey(msg)
}

func (m browseModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.focus = focusCarousel
		m.moveCarousel(-1)
	case "right", "l":
		m.focus = focusCarousel
		m.moveCarousel(1)
	case "up", "k":
		m.focus = focusList
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.focus = focusList
		if m.cursor < len(m.listState.Movies)-1 {
			m.cursor++
		}
	case "r":
		return m, m.activateList()
	case "enter":
		movie, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.openDetail(movie.ID)
	}
	return m, nil
}

func (m browseModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.detail.Deactivate()
		m.detailStream = nil
		m.detailState = viewstate.DetailState{}
		m.screen = screenList
		return m, nil
	case "r":
		return m, m.openDetail(m.detailState.ID)
	case "m":
		if m.detailState.HasMore {
			m.fullSynopsis = !m.fullSynopsis
			m.refreshDetail()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// moveCarousel shifts the carousel one card and snaps to the nearest card.
func (m *browseModel) moveCarousel(delta int) {
	cards := len(m.listState.NowPlaying)
	offset := float64((m.carousel + delta) * carouselCardWidth)
	m.carousel = core.CarouselIndex(offset, carouselCardWidth, cards)
}

func (m *browseModel) clampSelection() {
	m.carousel = core.CarouselIndex(float64(m.carousel*carouselCardWidth), carouselCardWidth, len(m.listState.NowPlaying))
	m.cursor = max(0, min(m.cursor, len(m.listState.Movies)-1))
}

// selected returns the movie under the active selection.
func (m browseModel) selected() (core.Movie, bool) {
	st := m.listState
	if m.focus == focusCarousel {
		if m.carousel < len(st.NowPlaying) {
			return st.NowPlaying[m.carousel], true
		}
		return core.Movie{}, false
	}
	if m.cursor < len(st.Movies) {
		return st.Movies[m.cursor], true
	}
	return core.Movie{}, false
}

func (m *browseModel) activateList() tea.Cmd {
	m.listStream = m.list.Activate(m.ctx)
	return waitForList(m.listStream)
}

// openDetail navigates to the detail screen; only the id crosses over.
func (m *browseModel) openDetail(id int) tea.Cmd {
	if id != m.detailState.ID {
		m.fullSynopsis = false
	}
	m.screen = screenDetail
	m.detailStream = m.detail.Activate(m.ctx, id)
	m.viewport.GotoTop()
	return waitForDetail(m.detailStream)
}

func waitForList(stream <-chan viewstate.ListState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-stream
		if !ok {
			return nil
		}
		return listStateMsg{state: st, stream: stream}
	}
}

func waitForDetail(stream <-chan viewstate.DetailState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-stream
		if !ok {
			return nil
		}
		return detailStateMsg{state: st, stream: stream}
	}
}

func (m *browseModel) refreshDetail() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderDetailBody())
}

// View renders the current screen.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.screen == screenDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render("moviedeck"))
	sb.WriteString("\n")

	st := m.listState
	switch {
	case st.Status == viewstate.StatusFailed:
		sb.WriteString(styleError.Render(failureMessage(st.Kind, st.Err)))
		sb.WriteString("\n")
		sb.WriteString(styleDim.Render("press r to retry"))
		sb.WriteString("\n")
		return sb.String()
	case len(st.Movies) == 0 && st.Status == viewstate.StatusLoaded:
		sb.WriteString(styleDim.Render("No popular movies right now."))
		sb.WriteString("\n")
	case len(st.Movies) == 0:
		sb.WriteString(m.spinner.View() + styleDim.Render(" Loading popular movies..."))
		sb.WriteString("\n")
		return sb.String()
	}

	if len(st.NowPlaying) > 0 {
		sb.WriteString(styleTitle.Render("Now Playing"))
		sb.WriteString("\n")
		sb.WriteString(m.renderCarousel())
		sb.WriteString("\n\n")
	}
	if len(st.ComingSoon) > 0 {
		sb.WriteString(styleTitle.Render("Coming Soon"))
		sb.WriteString("\n")
		for _, mv := range st.ComingSoon {
			sb.WriteString("  " + mv.Title + styleDim.Render(releaseSuffix(mv)) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(styleTitle.Render("All Popular"))
	sb.WriteString("\n")
	for i, mv := range st.Movies {
		line := fmt.Sprintf("%s  %s", mv.Title, styleRating.Render("★ "+mv.RatingLabel()))
		if m.focus == focusList && i == m.cursor {
			sb.WriteString(styleInfo.Render("> ") + line + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	sb.WriteString("\n")
	if st.Status == viewstate.StatusLoading {
		sb.WriteString(m.spinner.View() + " ")
	}
	sb.WriteString(styleDim.Render("←/→ carousel · ↑/↓ list · enter open · r reload · q quit"))
	return sb.String()
}

// renderCarousel lays the Now Playing cards side by side, highlighting the selection.
func (m browseModel) renderCarousel() string {
	card := lipgloss.NewStyle().
		Width(carouselCardWidth-2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	active := card.BorderForeground(lipgloss.Color("12"))

	cards := make([]string, 0, len(m.listState.NowPlaying))
	for i, mv := range m.listState.NowPlaying {
		body := mv.ShortTitle(carouselTitleLen) + "\n" +
			styleDim.Render(mv.Year()) + "  " + styleRating.Render("★ "+mv.RatingLabel())
		style := card
		if m.focus == focusCarousel && i == m.carousel {
			style = active
		}
		cards = append(cards, style.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func releaseSuffix(mv core.Movie) string {
	if mv.ReleaseDate == "" {
		return ""
	}
	return "  " + mv.ReleaseDate
}

func (m browseModel) viewDetail() string {
	var footer string
	if m.detailState.Status == viewstate.StatusLoading {
		footer = m.spinner.View() + " "
	}
	help := "esc back · r reload · ↑/↓ scroll · q quit"
	if m.detailState.HasMore {
		help = "esc back · m more/less · r reload · ↑/↓ scroll · q quit"
	}
	footer += styleDim.Render(help)

	return styleHeader.Render("moviedeck") + "\n" +
		m.viewport.View() + "\n" +
		footer
}

// renderDetailBody renders the detail screen content placed in the viewport.
func (m browseModel) renderDetailBody() string {
	st := m.detailState
	switch {
	case st.Status == viewstate.StatusFailed:
		return styleError.Render(failureMessage(st.Kind, st.Err)) + "\n" +
			styleDim.Render("press r to retry or esc to go back")
	case st.Movie == nil:
		return m.spinner.View() + styleDim.Render(" Loading movie...")
	}

	mv := *st.Movie
	var sb strings.Builder
	sb.WriteString(styleTitle.Render(mv.Title))
	if y := mv.Year(); y != "" {
		sb.WriteString(styleDim.Render(" (" + y + ")"))
	}
	sb.WriteString("\n")
	sb.WriteString(styleRating.Render("★ " + mv.RatingLabel()))
	if r := mv.RuntimeLabel(); r != "" {
		sb.WriteString("  " + styleDim.Render(r))
	}
	if g := mv.PrimaryGenre(); g != "" {
		sb.WriteString("  " + styleInfo.Render(g))
	}
	sb.WriteString("\n\n")

	width := max(20, m.width-2)
	text := lipgloss.NewStyle().Width(width)
	switch {
	case mv.Overview == "":
		sb.WriteString(styleDim.Render(noSynopsis))
	case m.fullSynopsis:
		sb.WriteString(text.Render(mv.Overview))
	default:
		sb.WriteString(text.Render(st.Synopsis))
	}
	sb.WriteString("\n")

	if g := mv.GenreNames(0); len(g) > 1 {
		sb.WriteString("\n" + styleDim.Render("Genres: "+strings.Join(g, ", ")) + "\n")
	}
	if url := tmdb.BackdropURL(mv); url != "" {
		sb.WriteString("\n" + styleDim.Render(url) + "\n")
	}
	return sb.String()
}
