package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/catalog"
	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/notice"
)

type formRowKind int

const (
	formName formRowKind = iota
	formCategory
	formDescription
	formSlot
)

type formRow struct {
	kind  formRowKind
	index int
}

// productForm edits one product. original is nil while creating.
type productForm struct {
	active   bool
	original *api.Product
	draft    catalog.Draft
	cursor   int
	editing  bool
	row      formRow
	input    textinput.Model
	saving   bool
	err      string
}

func newProductForm() productForm {
	ti := textinput.New()
	ti.CharLimit = 4000
	return productForm{input: ti}
}

type productSavedMsg struct {
	created bool
	product api.Product
	err     error
}

func (f productForm) rows() []formRow {
	rows := []formRow{{kind: formName}, {kind: formCategory}, {kind: formDescription}}
	for i := range f.draft.Media {
		rows = append(rows, formRow{kind: formSlot, index: i})
	}
	return rows
}

// changed reports whether saving would do anything. A new product can
// always be submitted; validation decides.
func (f productForm) changed() bool {
	if f.original == nil {
		return true
	}
	return f.draft.Changed(*f.original)
}

func (m Model) openCreateForm() (tea.Model, tea.Cmd) {
	form := newProductForm()
	form.active = true
	form.draft = catalog.NewDraft(m.catalog.Taxonomy())
	m.form = form
	m.status = ""
	return m, nil
}

type productFetchedMsg struct {
	product api.Product
	err     error
}

// loadForEdit reads the product item so the form starts from the server's
// copy rather than the list row.
func (m Model) loadForEdit(p api.Product) tea.Cmd {
	ctx, svc := m.ctx, m.catalog
	return func() tea.Msg {
		full, err := svc.Get(ctx, p.ID)
		return productFetchedMsg{product: full, err: err}
	}
}

func (m Model) handleProductFetched(msg productFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.productFailure("load product", msg.err)
	}
	return m.openEditForm(msg.product)
}

func (m Model) openEditForm(p api.Product) (tea.Model, tea.Cmd) {
	form := newProductForm()
	form.active = true
	orig := p.Clone()
	form.original = &orig
	form.draft = catalog.DraftFrom(p)
	m.form = form
	m.status = ""
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.editing {
		return m.handleFormInput(msg)
	}
	// The draft belongs to the save command until it reports back.
	if m.form.saving {
		return m, nil
	}
	rows := m.form.rows()
	row := rows[clamp(m.form.cursor, 0, len(rows)-1)]

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form = newProductForm()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.form.cursor > 0 {
			m.form.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.form.cursor < len(rows)-1 {
			m.form.cursor++
		}
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		if row.kind == formCategory {
			step := 1
			if key.Matches(msg, m.keys.Left) {
				step = -1
			}
			m.form.draft.Category = cycleCategory(m.catalog.Taxonomy().Accepted(), m.form.draft.Category, step)
		}
	case key.Matches(msg, m.keys.Confirm):
		return m.startFormEdit(row)
	case key.Matches(msg, m.keys.Attach):
		if row.kind == formSlot {
			return m.startFormEdit(row)
		}
	case key.Matches(msg, m.keys.Remove):
		if row.kind == formSlot {
			m.form.draft.Media = slices.Clone(m.form.draft.Media)
			if m.form.draft.Media[row.index].Kind() == media.KindRetained {
				m.form.draft.Media[row.index] = media.MarkedForRemoval()
			} else {
				m.form.draft.Media[row.index] = media.Absent()
			}
			if p := m.form.draft.Primary; p != nil && *p == row.index {
				m.form.draft.Primary = nil
			}
		}
	case key.Matches(msg, m.keys.SetCover):
		if row.kind != formSlot {
			return m, nil
		}
		if p := m.form.draft.Primary; p != nil && *p == row.index {
			m.form.draft.Primary = nil
			return m, nil
		}
		if !m.form.draft.Media[row.index].IsSet() {
			m.form.err = "Cover image must point at a filled media slot"
			return m, nil
		}
		idx := row.index
		m.form.draft.Primary = &idx
		m.form.err = ""
	case key.Matches(msg, m.keys.Save):
		return m.saveForm()
	}
	return m, nil
}

func (m Model) startFormEdit(row formRow) (tea.Model, tea.Cmd) {
	value, placeholder, prompt := "", "", ""
	switch row.kind {
	case formName:
		value, prompt = m.form.draft.Name, "Name: "
	case formCategory:
		value, prompt = string(m.form.draft.Category), "Category: "
		placeholder = "Premium"
	case formDescription:
		value, prompt = m.form.draft.Description, "Description: "
	case formSlot:
		prompt = fmt.Sprintf("Media %d file: ", row.index+1)
		placeholder = "path to image or video"
	}
	m.form.editing = true
	m.form.row = row
	m.form.input.Prompt = prompt
	m.form.input.Placeholder = placeholder
	m.form.input.SetValue(value)
	m.form.input.CursorEnd()
	return m, m.form.input.Focus()
}

func (m Model) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopFormEdit()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if err := m.commitFormEdit(); err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.stopFormEdit()
		m.form.err = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.form.input, cmd = m.form.input.Update(msg)
	return m, cmd
}

func (m *Model) stopFormEdit() {
	m.form.editing = false
	m.form.input.Blur()
	m.form.input.SetValue("")
}

func (m *Model) commitFormEdit() error {
	value := m.form.input.Value()
	switch m.form.row.kind {
	case formName:
		m.form.draft.Name = value
	case formDescription:
		m.form.draft.Description = value
	case formCategory:
		c, ok := m.catalog.Taxonomy().Parse(value)
		if !ok {
			return &catalog.ValidationError{Field: "category", Message: fmt.Sprintf("Unknown category %q", strings.TrimSpace(value))}
		}
		m.form.draft.Category = c
	case formSlot:
		slot, err := media.Open(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		m.form.draft.Media = slices.Clone(m.form.draft.Media)
		m.form.draft.Media[m.form.row.index] = slot
	}
	return nil
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	if !m.form.changed() {
		m.setStatus("Nothing to save", false)
		return m, nil
	}
	d := m.form.draft
	d.Media = slices.Clone(d.Media)
	if err := d.Validate(m.catalog.Taxonomy()); err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	m.form.saving = true
	m.form.err = ""
	ctx, svc := m.ctx, m.catalog
	if m.form.original == nil {
		return m, func() tea.Msg {
			p, err := svc.Create(ctx, d)
			return productSavedMsg{created: true, product: p, err: err}
		}
	}
	id := m.form.original.ID
	return m, func() tea.Msg {
		p, err := svc.Update(ctx, id, d)
		return productSavedMsg{product: p, err: err}
	}
}

func (m Model) handleProductSaved(msg productSavedMsg) (tea.Model, tea.Cmd) {
	m.form.saving = false
	if msg.err != nil {
		if catalog.IsValidation(msg.err) {
			m.form.err = msg.err.Error()
			return m, nil
		}
		verb := "update product"
		if msg.created {
			verb = "create product"
		}
		return m.productFailure(verb, msg.err)
	}
	verb := "Saved"
	if msg.created {
		verb = "Created"
	}
	m.form = newProductForm()
	m.setStatus(fmt.Sprintf("%s %s", verb, msg.product.Name), false)
	return m, m.loadProducts()
}

// productFailure posts a failure notice that stays until dismissed or
// replaced. An expired session goes through handleFailure instead.
func (m Model) productFailure(action string, err error) (tea.Model, tea.Cmd) {
	if api.StatusOf(err) == http.StatusUnauthorized || errors.Is(err, context.Canceled) {
		return m.handleFailure(action, err)
	}
	m.logger.Warn(action+" failed", zap.Error(err))
	m.notices.Notify(notice.Notice{
		Level:   notice.Error,
		Message: fmt.Sprintf("Failed to %s: %s", action, api.MessageOf(err)),
	})
	return m, nil
}

// actionVerb turns a past-tense list action into the verb of its failure
// notice.
func actionVerb(past string) string {
	switch past {
	case "Deleted":
		return "delete"
	case "Enabled":
		return "enable"
	case "Disabled":
		return "disable"
	}
	return strings.ToLower(past)
}

func cycleCategory(accepted []catalog.Category, current catalog.Category, step int) catalog.Category {
	if len(accepted) == 0 {
		return current
	}
	i := slices.Index(accepted, current)
	if i < 0 {
		return accepted[0]
	}
	return accepted[(i+step+len(accepted))%len(accepted)]
}

func (m Model) renderProductForm() string {
	styles := m.theme.Styles()
	f := m.form
	d := f.draft

	var b strings.Builder
	title := "New product"
	if f.original != nil {
		title = "Edit " + f.original.Name
	}
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	if f.original != nil {
		if t := f.original.ParsedCreatedAt(); !t.IsZero() {
			b.WriteString(styles.MutedText.Render("  created " + t.Local().Format("2006-01-02")))
		}
	}
	b.WriteString("\n")

	switch {
	case f.saving:
		b.WriteString(styles.MutedText.Render("Saving..."))
		return b.String()
	case f.original != nil && !f.changed():
		b.WriteString(styles.MutedText.Render("No changes"))
	default:
		b.WriteString(styles.WarningText.Render("Unsaved changes, press S to save"))
	}
	b.WriteString("\n\n")

	labelWidth := 14
	valueWidth := clamp(m.width-labelWidth-6, 20, 100)
	rows := f.rows()
	cursor := clamp(f.cursor, 0, len(rows)-1)
	for i, row := range rows {
		var label, value string
		switch row.kind {
		case formName:
			label, value = "name", d.Name
		case formCategory:
			label, value = "category", "‹ "+string(d.Category)+" ›"
		case formDescription:
			label, value = "description", singleLine(d.Description)
		case formSlot:
			label = fmt.Sprintf("media %d", row.index+1)
			value = d.Media[row.index].Label()
			if d.Primary != nil && *d.Primary == row.index {
				value += "  [cover]"
			}
		}
		line := padRight(label, labelWidth) + "  " + truncate(value, valueWidth)
		if i == cursor {
			line = styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
	}
	if f.editing {
		b.WriteString("\n")
		b.WriteString(f.input.View())
	}
	return b.String()
}
