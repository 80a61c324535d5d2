package ui

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/blockdates"
	"github.com/velourdrapes/backoffice/internal/notice"
)

const (
	blockedMessage   = "Date successfully blocked"
	unblockedMessage = "Date successfully unblocked"
	successNoticeTTL = 5 * time.Second
)

type calendarState struct {
	// cursor is the selected day at local midnight.
	cursor  time.Time
	pending bool
}

func newCalendarState(now time.Time) calendarState {
	return calendarState{cursor: startOfDay(now)}
}

type datesLoadedMsg struct {
	err error
}

type dayToggledMsg struct {
	day     blockdates.Day
	blocked bool
	err     error
}

func (m Model) loadDates(refresh bool) tea.Cmd {
	if m.calendar == nil {
		return nil
	}
	ctx, mgr := m.ctx, m.calendar
	return func() tea.Msg {
		var err error
		if refresh {
			_, err = mgr.Refresh(ctx)
		} else {
			_, err = mgr.Load(ctx)
		}
		return datesLoadedMsg{err: err}
	}
}

func (m Model) handleCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	today := startOfDay(m.now())
	switch {
	case key.Matches(msg, m.keys.Left):
		m.cal.cursor = m.cal.cursor.AddDate(0, 0, -1)
	case key.Matches(msg, m.keys.Right):
		m.cal.cursor = m.cal.cursor.AddDate(0, 0, 1)
	case key.Matches(msg, m.keys.Up):
		m.cal.cursor = m.cal.cursor.AddDate(0, 0, -7)
	case key.Matches(msg, m.keys.Down):
		m.cal.cursor = m.cal.cursor.AddDate(0, 0, 7)
	case key.Matches(msg, m.keys.PrevPage):
		m.cal.cursor = shiftMonth(m.cal.cursor, -1)
	case key.Matches(msg, m.keys.NextPage):
		m.cal.cursor = shiftMonth(m.cal.cursor, 1)
	case key.Matches(msg, m.keys.ToggleDay):
		if m.cal.pending {
			return m, nil
		}
		m.cal.pending = true
		return m, m.toggleDay(m.cal.cursor)
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadDates(true)
	}
	// Months before the current one are not reachable.
	if firstOfMonth(m.cal.cursor).Before(firstOfMonth(today)) {
		m.cal.cursor = clampToMonth(today, m.cal.cursor.Day())
	}
	return m, nil
}

func (m Model) toggleDay(day time.Time) tea.Cmd {
	ctx, mgr := m.ctx, m.calendar
	return func() tea.Msg {
		blocked, err := mgr.Toggle(ctx, day)
		return dayToggledMsg{day: blockdates.DayOf(day), blocked: blocked, err: err}
	}
}

func (m Model) handleDayToggled(msg dayToggledMsg) (tea.Model, tea.Cmd) {
	m.cal.pending = false
	if msg.err != nil {
		// The manager already posted the failure notice.
		m.logger.Warn("toggle blocked date failed", zap.String("day", msg.day.String()), zap.Error(msg.err))
		if api.StatusOf(msg.err) == http.StatusUnauthorized {
			return m.handleFailure("toggle "+msg.day.String(), msg.err)
		}
		return m, nil
	}
	text := unblockedMessage
	if msg.blocked {
		text = blockedMessage
	}
	m.notices.Notify(notice.Notice{Level: notice.Success, Message: text, TTL: successNoticeTTL})
	return m, nil
}

func (m Model) renderCalendar() string {
	styles := m.theme.Styles()
	today := blockdates.DayOf(m.now())
	cursor := blockdates.DayOf(m.cal.cursor)
	set, loaded := m.calendar.Dates()

	var b strings.Builder
	title := m.cal.cursor.Format("January 2006")
	b.WriteString(styles.Text.Bold(true).Render(title))
	if !loaded {
		b.WriteString(styles.MutedText.Render("  loading blocked dates..."))
	} else {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %d blocked this month, %d in total", len(set.InMonth(m.cal.cursor.Year(), m.cal.cursor.Month())), set.Len())))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render(" Su  Mo  Tu  We  Th  Fr  Sa"))
	b.WriteString("\n")

	for _, week := range monthGrid(m.cal.cursor.Year(), m.cal.cursor.Month()) {
		for _, n := range week {
			if n == 0 {
				b.WriteString("    ")
				continue
			}
			d := blockdates.Day{Year: m.cal.cursor.Year(), Month: m.cal.cursor.Month(), Day: n}
			cell := fmt.Sprintf(" %2d ", n)
			switch {
			case d == cursor:
				cell = styles.Selected.Render(cell)
			case set.Contains(d):
				cell = styles.Blocked.Render(cell)
			case d == today:
				cell = styles.Today.Render(cell)
			case d.Compare(today) < 0:
				cell = styles.FaintText.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	selected := cursor.String()
	switch {
	case m.cal.pending:
		b.WriteString(styles.MutedText.Render(selected + "  saving..."))
	case set.Contains(cursor):
		b.WriteString(styles.DangerText.Render(selected + "  blocked"))
	default:
		b.WriteString(styles.SuccessText.Render(selected + "  available"))
	}
	return b.String()
}

// monthGrid lays month out in Sunday-first weeks; zero marks padding cells.
func monthGrid(year int, month time.Month) [][7]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := daysIn(year, month)
	offset := int(first.Weekday())

	var weeks [][7]int
	var week [7]int
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// shiftMonth moves t by n months, keeping the day of month where it exists.
func shiftMonth(t time.Time, n int) time.Time {
	return clampToMonth(firstOfMonth(t).AddDate(0, n, 0), t.Day())
}

// clampToMonth returns day of t's month, clamped to the month's length.
func clampToMonth(t time.Time, day int) time.Time {
	last := daysIn(t.Year(), t.Month())
	return time.Date(t.Year(), t.Month(), clamp(day, 1, last), 0, 0, 0, 0, t.Location())
}
