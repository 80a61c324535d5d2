package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/website"
)

type rowKind int

const (
	rowSlot rowKind = iota
	rowText
	rowPrice
)

// siteRow is one editable line of a section.
type siteRow struct {
	kind  rowKind
	field string
	index int
}

type editMode int

const (
	editNone editMode = iota
	editText
	editAttach
	editPrice
	addPrice
)

type websiteState struct {
	section int
	drafts  map[website.Section]*website.Draft
	cursor  int
	editing editMode
	row     siteRow
	input   textinput.Model
	saving  bool
}

func newWebsiteState() websiteState {
	ti := textinput.New()
	ti.CharLimit = 2000
	return websiteState{drafts: make(map[website.Section]*website.Draft), input: ti}
}

func (s websiteState) current() website.Section {
	return website.Sections[s.section%len(website.Sections)]
}

type sectionLoadedMsg struct {
	section website.Section
	draft   *website.Draft
	err     error
}

type sectionSavedMsg struct {
	section website.Section
	err     error
}

// loadSection fetches sec into a fresh draft unless one is already being
// edited. reload discards the cached content and any local edits.
func (m Model) loadSection(sec website.Section, reload bool) tea.Cmd {
	if m.website == nil {
		return nil
	}
	if _, ok := m.site.drafts[sec]; ok && !reload {
		return nil
	}
	if reload {
		m.cache.Invalidate(website.Key(sec))
	}
	ctx, svc := m.ctx, m.website
	return func() tea.Msg {
		d, err := svc.Edit(ctx, sec)
		return sectionLoadedMsg{section: sec, draft: d, err: err}
	}
}

func (m Model) handleSectionLoaded(msg sectionLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.handleFailure("load "+msg.section.Title(), msg.err)
	}
	m.site.drafts[msg.section] = msg.draft
	m.site.cursor = 0
	return m, nil
}

func (m Model) handleSectionSaved(msg sectionSavedMsg) (tea.Model, tea.Cmd) {
	m.site.saving = false
	if msg.err != nil {
		return m.handleFailure("save "+msg.section.Title(), msg.err)
	}
	m.setStatus(msg.section.Title()+" saved", false)
	return m, nil
}

func siteRows(d *website.Draft) []siteRow {
	if d == nil {
		return nil
	}
	var rows []siteRow
	for _, f := range d.SlotFields() {
		rows = append(rows, siteRow{kind: rowSlot, field: f})
	}
	for _, f := range d.TextFields() {
		rows = append(rows, siteRow{kind: rowText, field: f})
	}
	if d.Section() == website.Contact {
		for i := range d.PriceRanges() {
			rows = append(rows, siteRow{kind: rowPrice, index: i})
		}
	}
	return rows
}

func (m Model) handleWebsiteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.site.editing != editNone {
		return m.handleWebsiteInput(msg)
	}
	// The draft belongs to the save command until it reports back.
	if m.site.saving {
		return m, nil
	}
	sec := m.site.current()
	draft := m.site.drafts[sec]
	rows := siteRows(draft)

	switch {
	case key.Matches(msg, m.keys.NextSection):
		m.site.section = (m.site.section + 1) % len(website.Sections)
		m.site.cursor = 0
		return m, m.loadSection(m.site.current(), false)
	case key.Matches(msg, m.keys.Reload):
		delete(m.site.drafts, sec)
		return m, m.loadSection(sec, true)
	case key.Matches(msg, m.keys.Up):
		if m.site.cursor > 0 {
			m.site.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.site.cursor < len(rows)-1 {
			m.site.cursor++
		}
		return m, nil
	}

	if draft == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Save):
		if !draft.Dirty() {
			m.setStatus("Nothing to save", false)
			return m, nil
		}
		m.site.saving = true
		ctx, svc := m.ctx, m.website
		return m, func() tea.Msg {
			return sectionSavedMsg{section: sec, err: svc.Save(ctx, draft)}
		}
	case key.Matches(msg, m.keys.AddPrice):
		if sec != website.Contact {
			return m, nil
		}
		return m.startEdit(addPrice, siteRow{kind: rowPrice}, "", "29000 - 38000")
	}

	if len(rows) == 0 {
		return m, nil
	}
	row := rows[clamp(m.site.cursor, 0, len(rows)-1)]

	switch {
	case key.Matches(msg, m.keys.Confirm):
		switch row.kind {
		case rowSlot:
			return m.startEdit(editAttach, row, "", "path to image or video")
		case rowText:
			return m.startEdit(editText, row, draft.Text(row.field), "")
		case rowPrice:
			current := draft.PriceRanges()[row.index]
			return m.startEdit(editPrice, row, website.UnformatPriceRange(current), "29000 - 38000")
		}
	case key.Matches(msg, m.keys.Attach):
		if row.kind == rowSlot {
			return m.startEdit(editAttach, row, "", "path to image or video")
		}
	case key.Matches(msg, m.keys.Remove):
		var err error
		switch row.kind {
		case rowSlot:
			err = draft.RemoveSlot(row.field)
		case rowPrice:
			err = draft.DeletePriceRange(row.index)
		}
		if err != nil {
			m.setStatus(err.Error(), true)
		}
	}
	return m, nil
}

func (m Model) startEdit(mode editMode, row siteRow, value, placeholder string) (tea.Model, tea.Cmd) {
	m.site.editing = mode
	m.site.row = row
	m.site.input.Prompt = editPrompt(mode, row)
	m.site.input.Placeholder = placeholder
	m.site.input.SetValue(value)
	m.site.input.CursorEnd()
	return m, m.site.input.Focus()
}

func (m Model) handleWebsiteInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopEdit()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if err := m.commitEdit(); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.stopEdit()
		m.status = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.site.input, cmd = m.site.input.Update(msg)
	return m, cmd
}

func (m *Model) stopEdit() {
	m.site.editing = editNone
	m.site.input.Blur()
	m.site.input.SetValue("")
}

// commitEdit applies the input to the draft. Validation errors keep the
// input open.
func (m *Model) commitEdit() error {
	draft := m.site.drafts[m.site.current()]
	if draft == nil {
		return fmt.Errorf("section is not loaded")
	}
	value := m.site.input.Value()
	row := m.site.row
	switch m.site.editing {
	case editText:
		return draft.SetText(row.field, value)
	case editAttach:
		slot, err := media.Open(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		return draft.SetSlot(row.field, slot)
	case editPrice:
		return draft.EditPriceRange(row.index, value)
	case addPrice:
		return draft.AddPriceRange(value)
	}
	return nil
}

func editPrompt(mode editMode, row siteRow) string {
	switch mode {
	case editAttach:
		return row.field + " file: "
	case editPrice, addPrice:
		return "Price range: "
	default:
		return row.field + ": "
	}
}

func (m Model) renderWebsite() string {
	styles := m.theme.Styles()
	sec := m.site.current()

	var b strings.Builder
	for i, s := range website.Sections {
		label := s.Title()
		if i == m.site.section%len(website.Sections) {
			b.WriteString(styles.TabOn.Render(label))
		} else {
			b.WriteString(styles.Tab.Render(label))
		}
	}
	b.WriteString("\n\n")

	draft := m.site.drafts[sec]
	switch {
	case m.site.saving:
		b.WriteString(styles.MutedText.Render("Saving " + sec.Title() + "..."))
		return b.String()
	case draft == nil:
		b.WriteString(styles.MutedText.Render("Loading " + sec.Title() + "..."))
		return b.String()
	}

	switch {
	case draft.Dirty():
		b.WriteString(styles.WarningText.Render("Unsaved changes, press S to save"))
	default:
		b.WriteString(styles.MutedText.Render("No changes"))
	}
	b.WriteString("\n\n")

	labelWidth := 18
	valueWidth := clamp(m.width-labelWidth-6, 20, 100)
	rows := siteRows(draft)
	cursor := clamp(m.site.cursor, 0, len(rows)-1)
	for i, row := range rows {
		var label, value string
		switch row.kind {
		case rowSlot:
			slot := draft.Slot(row.field)
			label = row.field
			value = slot.Label()
			if slot.IsVideo() {
				value += " [video]"
			}
		case rowText:
			label = row.field
			value = singleLine(draft.Text(row.field))
		case rowPrice:
			label = fmt.Sprintf("price %d", row.index+1)
			value = draft.PriceRanges()[row.index]
		}
		line := padRight(truncate(label, labelWidth), labelWidth) + "  " + truncate(value, valueWidth)
		if i == cursor {
			line = styles.Selected.Render(line)
		} else if row.kind == rowSlot && draft.Slot(row.field).Kind() != media.KindRetained {
			line = styles.AccentText.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.site.editing != editNone {
		b.WriteString("\n")
		b.WriteString(m.site.input.View())
	}
	return b.String()
}
