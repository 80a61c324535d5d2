package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/catalog"
)

type productsState struct {
	filter    catalog.Filter
	cursor    int
	searching bool
	search    textinput.Model
	confirm   *api.Product
}

func newProductsState() productsState {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search by name"
	ti.CharLimit = 80
	return productsState{filter: catalog.Filter{Page: 1}, search: ti}
}

type productsLoadedMsg struct {
	filter catalog.Filter
	err    error
}

type productActionMsg struct {
	verb string
	name string
	err  error
}

func (m Model) loadProducts() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	ctx, svc, f := m.ctx, m.catalog, m.products.filter
	return func() tea.Msg {
		_, err := svc.List(ctx, f)
		return productsLoadedMsg{filter: f, err: err}
	}
}

// setFilter applies f from its first page and reloads.
func (m Model) setFilter(f catalog.Filter) (tea.Model, tea.Cmd) {
	m.products.filter = f.WithPage(1)
	m.products.cursor = 0
	return m, m.loadProducts()
}

func (m Model) selectedProduct() (api.Product, bool) {
	if m.catalog == nil {
		return api.Product{}, false
	}
	items := m.catalog.View(m.products.filter).Page.Products
	if len(items) == 0 {
		return api.Product{}, false
	}
	return items[clamp(m.products.cursor, 0, len(items)-1)], true
}

func (m Model) handleProductsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.products.confirm != nil {
		p := *m.products.confirm
		m.products.confirm = nil
		if key.Matches(msg, m.keys.Yes) {
			return m, m.deleteProduct(p)
		}
		m.setStatus("Delete cancelled", false)
		return m, nil
	}
	if m.products.searching {
		return m.handleSearchKey(msg)
	}

	view := m.catalog.View(m.products.filter)
	count := len(view.Page.Products)

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.products.cursor > 0 {
			m.products.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.products.cursor < count-1 {
			m.products.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.products.filter.Page > 1 {
			m.products.filter.Page--
			m.products.cursor = 0
			return m, m.loadProducts()
		}
	case key.Matches(msg, m.keys.NextPage):
		if view.Loaded && !view.Placeholder && m.products.filter.Page >= view.Page.TotalPages {
			return m, nil
		}
		m.products.filter.Page++
		m.products.cursor = 0
		return m, m.loadProducts()
	case key.Matches(msg, m.keys.CycleCategory):
		f := m.products.filter
		f.Category = m.catalog.Taxonomy().Next(f.Category)
		return m.setFilter(f)
	case key.Matches(msg, m.keys.CycleStatus):
		f := m.products.filter
		f.Status = catalog.NextStatus(f.Status)
		return m.setFilter(f)
	case key.Matches(msg, m.keys.Search):
		m.products.searching = true
		m.products.search.SetValue(m.products.filter.Search)
		m.products.search.CursorEnd()
		return m, m.products.search.Focus()
	case key.Matches(msg, m.keys.ToggleStatus):
		if p, ok := m.selectedProduct(); ok {
			return m, m.toggleProduct(p)
		}
	case key.Matches(msg, m.keys.Delete):
		if p, ok := m.selectedProduct(); ok {
			m.products.confirm = &p
		}
	case key.Matches(msg, m.keys.NewProduct):
		return m.openCreateForm()
	case key.Matches(msg, m.keys.EditProduct):
		if p, ok := m.selectedProduct(); ok {
			return m, m.loadForEdit(p)
		}
	case key.Matches(msg, m.keys.Reload):
		m.cache.Invalidate(catalog.ListKey)
		return m, m.loadProducts()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.products.searching = false
		m.products.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.products.searching = false
		m.products.search.Blur()
		f := m.products.filter
		f.Search = strings.TrimSpace(m.products.search.Value())
		return m.setFilter(f)
	}
	var cmd tea.Cmd
	m.products.search, cmd = m.products.search.Update(msg)
	return m, cmd
}

func (m Model) toggleProduct(p api.Product) tea.Cmd {
	ctx, svc := m.ctx, m.catalog
	verb := "Disabled"
	if !p.Status {
		verb = "Enabled"
	}
	return func() tea.Msg {
		_, err := svc.ToggleStatus(ctx, p.ID)
		return productActionMsg{verb: verb, name: p.Name, err: err}
	}
}

func (m Model) deleteProduct(p api.Product) tea.Cmd {
	ctx, svc := m.ctx, m.catalog
	return func() tea.Msg {
		err := svc.Delete(ctx, p.ID)
		return productActionMsg{verb: "Deleted", name: p.Name, err: err}
	}
}

func (m Model) handleProductAction(msg productActionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.productFailure(actionVerb(msg.verb)+" "+msg.name, msg.err)
	}
	m.setStatus(fmt.Sprintf("%s %s", msg.verb, msg.name), false)
	return m, m.loadProducts()
}

func (m Model) renderProducts() string {
	styles := m.theme.Styles()
	f := m.products.filter
	view := m.catalog.View(f)

	var b strings.Builder
	summary := fmt.Sprintf("Category: %s   Status: %s", categoryLabel(f.Category), statusLabel(f.Status))
	if f.Search != "" {
		summary += fmt.Sprintf("   Search: %q", f.Search)
	}
	b.WriteString(styles.MutedText.Render(summary))
	b.WriteString("\n")

	switch {
	case m.products.searching:
		b.WriteString(m.products.search.View())
	case m.products.confirm != nil:
		b.WriteString(styles.WarningText.Render(fmt.Sprintf("Delete %q? This cannot be undone. (y/N)", m.products.confirm.Name)))
	default:
		b.WriteString(pageLabel(f.Page, view))
	}
	b.WriteString("\n\n")

	if !view.Loaded {
		if view.Err != nil {
			b.WriteString(styles.DangerText.Render(api.MessageOf(view.Err)))
		} else {
			b.WriteString(styles.MutedText.Render("Loading products..."))
		}
		return b.String()
	}
	if len(view.Page.Products) == 0 {
		b.WriteString(styles.MutedText.Render("No products match this filter."))
		return b.String()
	}

	nameWidth := clamp(m.width-40, 16, 48)
	cursor := clamp(m.products.cursor, 0, len(view.Page.Products)-1)
	for i, p := range view.Page.Products {
		line := productRow(p, nameWidth)
		if !p.Status {
			line = styles.FaintText.Render(line)
		}
		if i == cursor && !view.Placeholder {
			line = styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func productRow(p api.Product, nameWidth int) string {
	state := "●"
	if !p.Status {
		state = "○"
	}
	updated := "-"
	if t := p.ParsedUpdatedAt(); !t.IsZero() {
		updated = t.Local().Format("2006-01-02")
	}
	return fmt.Sprintf("%s %s %s %2d media  %s",
		state,
		padRight(truncate(p.Name, nameWidth), nameWidth),
		padRight(truncate(p.Category, 14), 14),
		len(p.Media),
		updated,
	)
}

func pageLabel(page int, view catalog.ListView) string {
	switch {
	case !view.Loaded && view.Fetching:
		return fmt.Sprintf("Page %d  loading...", page)
	case !view.Loaded:
		return fmt.Sprintf("Page %d", page)
	}
	label := fmt.Sprintf("Page %d of %d  (%d products)", page, maxInt(view.Page.TotalPages, 1), view.Page.TotalCount)
	if view.Placeholder {
		label = fmt.Sprintf("Page %d  loading, showing page %d", page, view.Page.CurrentPage)
	} else if view.Fetching {
		label += "  refreshing..."
	}
	return label
}

func categoryLabel(c *catalog.Category) string {
	if c == nil {
		return "All"
	}
	return string(*c)
}

func statusLabel(s *bool) string {
	switch {
	case s == nil:
		return "All"
	case *s:
		return "Active"
	default:
		return "Inactive"
	}
}
