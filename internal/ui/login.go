package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/session"
)

type loginState struct {
	email    textinput.Model
	password textinput.Model
	focus    int // 0 = email, 1 = password
	busy     bool
	err      string
	// resume is the view to return to after signing in again.
	resume View
}

func newLoginState(email string) loginState {
	e := textinput.New()
	e.Prompt = "Email     "
	e.Placeholder = "admin@example.com"
	e.CharLimit = 254
	e.SetValue(email)
	e.Focus()

	p := textinput.New()
	p.Prompt = "Password  "
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'
	p.CharLimit = 128

	s := loginState{email: e, password: p}
	if email != "" {
		s.setFocus(1)
	}
	return s
}

func (s *loginState) setFocus(i int) {
	s.focus = i
	if i == 0 {
		s.email.Focus()
		s.password.Blur()
	} else {
		s.email.Blur()
		s.password.Focus()
	}
}

func (s loginState) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (s loginState) update(msg tea.Msg) (loginState, tea.Cmd) {
	var cmd tea.Cmd
	if s.focus == 0 {
		s.email, cmd = s.email.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

type loginDoneMsg struct {
	session session.Session
	err     error
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.login.setFocus(1 - m.login.focus)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if m.login.focus == 0 {
			m.login.setFocus(1)
			return m, nil
		}
		return m.submitLogin()
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.login.email.Value())
	password := m.login.password.Value()
	if email == "" || password == "" {
		m.login.err = "Email and password are required"
		return m, nil
	}
	m.login.busy = true
	m.login.err = ""
	ctx, auth, path := m.ctx, m.auth, m.sessionPath
	return m, func() tea.Msg {
		s, err := session.Login(ctx, auth, path, email, password)
		return loginDoneMsg{session: s, err: err}
	}
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	m.login.password.SetValue("")
	if msg.err != nil {
		m.logger.Warn("login failed", zap.Error(msg.err))
		m.login.err = api.MessageOf(msg.err)
		return m, nil
	}
	m.session = msg.session
	m.login.err = ""
	m.logger.Info("logged in", zap.String("email", msg.session.User.Email))
	next := m.login.resume
	if next == ViewLogin {
		next = ViewProducts
	}
	m.login.resume = ViewLogin
	return m.switchTo(next)
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := session.Clear(m.sessionPath); err != nil {
		m.setStatus("log out: "+err.Error(), true)
		return m, nil
	}
	m.logger.Info("logged out", zap.String("email", m.session.User.Email))
	m.session = session.Session{}
	m.login = newLoginState("")
	m.view = ViewLogin
	m.status = ""
	return m, m.login.focusCmd()
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(m.login.email.View())
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")
	switch {
	case m.login.busy:
		b.WriteString(styles.MutedText.Render("Signing in..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	}
	return styles.Panel.Render(b.String())
}
