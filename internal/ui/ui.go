package ui

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/blockdates"
	"github.com/velourdrapes/backoffice/internal/catalog"
	"github.com/velourdrapes/backoffice/internal/notice"
	"github.com/velourdrapes/backoffice/internal/session"
	"github.com/velourdrapes/backoffice/internal/state"
	"github.com/velourdrapes/backoffice/internal/website"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewProducts
	ViewCalendar
	ViewWebsite
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "Login"
	case ViewProducts:
		return "Products"
	case ViewCalendar:
		return "Calendar"
	case ViewWebsite:
		return "Website"
	default:
		return "Unknown"
	}
}

const defaultTick = time.Second

// Options configures the UI.
type Options struct {
	Context     context.Context
	Cache       state.Store
	Catalog     *catalog.Service
	Calendar    *blockdates.Manager
	Website     *website.Service
	Notices     *notice.Board
	Auth        session.Authenticator
	Session     session.Session
	SessionPath string
	ThemeName   string
	Tick        time.Duration
	Logger      *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Dependencies
	ctx         context.Context
	cache       state.Store
	catalog     *catalog.Service
	calendar    *blockdates.Manager
	website     *website.Service
	notices     *notice.Board
	auth        session.Authenticator
	sessionPath string
	logger      *zap.Logger
	tick        time.Duration
	now         func() time.Time

	// UI state
	theme   Theme
	keys    keyMap
	help    help.Model
	width   int
	height  int
	view    View
	session session.Session
	status  string
	failed  bool

	login    loginState
	products productsState
	form     productForm
	cal      calendarState
	site     websiteState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notices := opts.Notices
	if notices == nil {
		notices = notice.NewBoard(0, nil)
	}

	m := Model{
		ctx:         ctx,
		cache:       opts.Cache,
		catalog:     opts.Catalog,
		calendar:    opts.Calendar,
		website:     opts.Website,
		notices:     notices,
		auth:        opts.Auth,
		sessionPath: opts.SessionPath,
		logger:      logger,
		tick:        tick,
		now:         time.Now,
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		session:     opts.Session,
		login:       newLoginState(opts.Session.User.Email),
		products:    newProductsState(),
		form:        newProductForm(),
		cal:         newCalendarState(time.Now()),
		site:        newWebsiteState(),
	}
	m.view = ViewLogin
	if opts.Session.LoggedIn() {
		m.view = ViewProducts
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.view == ViewLogin {
		cmds = append(cmds, textinput.Blink)
	} else {
		cmds = append(cmds, m.loadView())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		// Re-rendering is enough to expire notices.
		return m, tickCmd(m.tick)

	case cacheChangedMsg:
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case productsLoadedMsg:
		if msg.err != nil {
			return m.handleFailure("load products", msg.err)
		}
		return m, nil

	case productActionMsg:
		return m.handleProductAction(msg)

	case productSavedMsg:
		return m.handleProductSaved(msg)

	case productFetchedMsg:
		return m.handleProductFetched(msg)

	case datesLoadedMsg:
		if msg.err != nil {
			return m.handleFailure("load blocked dates", msg.err)
		}
		return m, nil

	case dayToggledMsg:
		return m.handleDayToggled(msg)

	case sectionLoadedMsg:
		return m.handleSectionLoaded(msg)

	case sectionSavedMsg:
		return m.handleSectionSaved(msg)
	}

	return m.updateInputs(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	if footer := m.renderFooter(); footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
	}
	return b.String()
}

// handleKey routes keyboard input: modal inputs first, then global keys,
// then the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.view == ViewLogin {
		return m.handleLoginKey(msg)
	}
	if m.view == ViewProducts && m.form.active {
		return m.handleFormKey(msg)
	}
	if m.products.searching || m.products.confirm != nil {
		return m.handleProductsKey(msg)
	}
	if m.site.editing != editNone {
		return m.handleWebsiteKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.notices.Dismiss()
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.Products):
		return m.switchTo(ViewProducts)
	case key.Matches(msg, m.keys.Calendar):
		return m.switchTo(ViewCalendar)
	case key.Matches(msg, m.keys.Website):
		return m.switchTo(ViewWebsite)
	}

	switch m.view {
	case ViewProducts:
		return m.handleProductsKey(msg)
	case ViewCalendar:
		return m.handleCalendarKey(msg)
	case ViewWebsite:
		return m.handleWebsiteKey(msg)
	}
	return m, nil
}

func (m Model) switchTo(v View) (tea.Model, tea.Cmd) {
	if m.view == v {
		return m, nil
	}
	m.view = v
	m.status = ""
	return m, m.loadView()
}

// loadView reads the active view's data through the cache.
func (m Model) loadView() tea.Cmd {
	switch m.view {
	case ViewProducts:
		return m.loadProducts()
	case ViewCalendar:
		return m.loadDates(false)
	case ViewWebsite:
		return m.loadSection(m.site.current(), false)
	default:
		return nil
	}
}

// handleFailure reports err in the status line. An expired session sends
// the operator back to the login view.
func (m Model) handleFailure(action string, err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, context.Canceled) {
		return m, nil
	}
	m.logger.Warn(action+" failed", zap.Error(err))
	if api.StatusOf(err) == http.StatusUnauthorized {
		m.login.resume = m.view
		m.view = ViewLogin
		m.login.err = "Session expired, please log in again"
		return m, m.login.focusCmd()
	}
	m.setStatus(action+": "+api.MessageOf(err), true)
	return m, nil
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

// updateInputs forwards non-key messages (cursor blink) to the focused input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == ViewLogin:
		m.login, cmd = m.login.update(msg)
	case m.form.editing:
		m.form.input, cmd = m.form.input.Update(msg)
	case m.products.searching:
		m.products.search, cmd = m.products.search.Update(msg)
	case m.site.editing != editNone:
		m.site.input, cmd = m.site.input.Update(msg)
	}
	return m, cmd
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	var tabs []string
	for _, v := range []View{ViewProducts, ViewCalendar, ViewWebsite} {
		label := v.String()
		if v == m.view {
			tabs = append(tabs, styles.TabOn.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	left := styles.AccentText.Bold(true).Render("Velour Backoffice") + "  " + strings.Join(tabs, "")
	right := ""
	if m.session.LoggedIn() {
		right = styles.MutedText.Render(m.session.User.Email)
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderContent() string {
	switch m.view {
	case ViewLogin:
		return m.renderLogin()
	case ViewProducts:
		if m.form.active {
			return m.renderProductForm()
		}
		return m.renderProducts()
	case ViewCalendar:
		return m.renderCalendar()
	case ViewWebsite:
		return m.renderWebsite()
	default:
		return ""
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var lines []string
	for _, n := range m.notices.Active() {
		lines = append(lines, noticeStyle(styles, n.Level).Render(n.Message))
	}
	if m.status != "" {
		if m.failed {
			lines = append(lines, styles.DangerText.Render(m.status))
		} else {
			lines = append(lines, styles.SuccessText.Render(m.status))
		}
	}
	if m.view == ViewProducts && m.form.active {
		lines = append(lines, m.help.View(m.keys.formHelp()))
	} else {
		lines = append(lines, m.help.View(m.keys.helpFor(m.view)))
	}
	return styles.Footer.Render(strings.Join(lines, "\n"))
}

func noticeStyle(styles Styles, level notice.Level) lipgloss.Style {
	switch level {
	case notice.Error:
		return styles.DangerText
	case notice.Success:
		return styles.SuccessText
	default:
		return styles.InfoText
	}
}

// Messages

type tickMsg time.Time

type cacheChangedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchedKeys are the cache families the console renders. Only they are
// revalidated by the background poller.
var watchedKeys = []state.Key{catalog.ListKey, blockdates.Key, {"website"}}

// Run starts the Bubble Tea program and blocks until the operator quits or
// the context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Cache callbacks run on the writer's goroutine and must not block, so
	// they only raise a flag that a forwarder turns into messages.
	changes := make(chan struct{}, 1)
	if opts.Cache != nil {
		for _, prefix := range watchedKeys {
			unsubscribe := opts.Cache.Subscribe(prefix, func(state.Key) {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			defer unsubscribe()
		}
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-changes:
				p.Send(cacheChangedMsg{})
			}
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
