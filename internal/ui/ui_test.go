package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/catalog"
	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/mutation"
	"github.com/velourdrapes/backoffice/internal/notice"
	"github.com/velourdrapes/backoffice/internal/session"
	"github.com/velourdrapes/backoffice/internal/state"
	"github.com/velourdrapes/backoffice/internal/website"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMonthGrid(t *testing.T) {
	// June 2025 starts on a Sunday and has 30 days.
	weeks := monthGrid(2025, time.June)
	require.Len(t, weeks, 5)
	assert.Equal(t, 1, weeks[0][0])
	assert.Equal(t, [7]int{29, 30, 0, 0, 0, 0, 0}, weeks[4])

	// February 2026 fills exactly four rows.
	assert.Len(t, monthGrid(2026, time.February), 4)

	// October 2025 starts on a Wednesday.
	oct := monthGrid(2025, time.October)
	assert.Equal(t, [7]int{0, 0, 0, 1, 2, 3, 4}, oct[0])
}

func TestShiftMonthClampsDay(t *testing.T) {
	jan31 := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), shiftMonth(jan31, 1))
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), shiftMonth(jan31, -1))
}

func TestCalendarDoesNotPageBeforeCurrentMonth(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	m := New(Options{Session: session.Session{User: session.User{Email: "admin@example.com"}}})
	m.now = func() time.Time { return now }
	m.cal = newCalendarState(now)
	m.view = ViewCalendar

	updated, _ := m.Update(runes("["))
	m = updated.(Model)
	assert.Equal(t, time.June, m.cal.cursor.Month())
	assert.Equal(t, 15, m.cal.cursor.Day())

	updated, _ = m.Update(runes("]"))
	m = updated.(Model)
	assert.Equal(t, time.July, m.cal.cursor.Month())

	updated, _ = m.Update(runes("["))
	m = updated.(Model)
	assert.Equal(t, time.June, m.cal.cursor.Month())

	// Moving by weeks into May snaps back to the current month.
	for i := 0; i < 3; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
		m = updated.(Model)
	}
	assert.Equal(t, time.June, m.cal.cursor.Month())
}

func TestLoginRequiresCredentials(t *testing.T) {
	m := New(Options{})
	require.Equal(t, ViewLogin, m.view)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Equal(t, 1, m.login.focus, "enter on email moves to password")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, "Email and password are required", m.login.err)
	assert.False(t, m.login.busy)
}

func TestNewStartsOnProductsWhenLoggedIn(t *testing.T) {
	m := New(Options{Session: session.Session{User: session.User{Email: "admin@example.com"}}})
	assert.Equal(t, ViewProducts, m.view)
	assert.Equal(t, 1, m.products.filter.Page)
}

func TestLoginDoneResumesPreviousView(t *testing.T) {
	m := New(Options{})
	m.login.resume = ViewCalendar
	updated, _ := m.Update(loginDoneMsg{session: session.Session{User: session.User{Email: "a@b.c"}}})
	m = updated.(Model)
	assert.Equal(t, ViewCalendar, m.view)
	assert.Equal(t, "a@b.c", m.session.User.Email)
	assert.Equal(t, "", m.login.password.Value())
}

func TestUnauthorizedFailureReturnsToLogin(t *testing.T) {
	m := New(Options{Session: session.Session{User: session.User{Email: "a@b.c"}}})
	m.view = ViewWebsite
	updated, _ := m.Update(sectionLoadedMsg{section: website.Home, err: &api.RemoteError{Message: "Unauthorized", Status: 401}})
	m = updated.(Model)
	assert.Equal(t, ViewLogin, m.view)
	assert.Equal(t, ViewWebsite, m.login.resume)
	assert.NotEmpty(t, m.login.err)
}

func TestSiteRowsForContact(t *testing.T) {
	d := website.NewDraft(&website.ContactContent{
		Hero:        &website.MediaRef{URL: "https://cdn.example/hero.jpg"},
		ContentText: "Visit us",
		PriceRanges: []string{"29,000-38,000", "40,000-50,000"},
	})
	rows := siteRows(d)
	require.Len(t, rows, 4)
	assert.Equal(t, siteRow{kind: rowSlot, field: "hero"}, rows[0])
	assert.Equal(t, siteRow{kind: rowText, field: "contentText"}, rows[1])
	assert.Equal(t, siteRow{kind: rowPrice, index: 1}, rows[3])
	assert.Nil(t, siteRows(nil))
}

func TestWebsitePriceEditValidation(t *testing.T) {
	m := New(Options{Session: session.Session{User: session.User{Email: "a@b.c"}}})
	m.view = ViewWebsite
	m.site.section = 3 // contact
	d := website.NewDraft(&website.ContactContent{PriceRanges: []string{"29,000-38,000"}})
	m.site.drafts[website.Contact] = d

	updated, _ := m.Update(runes("a"))
	m = updated.(Model)
	require.Equal(t, addPrice, m.site.editing)

	m.site.input.SetValue("50000 - 40000")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Equal(t, addPrice, m.site.editing, "invalid input keeps the editor open")
	assert.True(t, m.failed)

	m.site.input.SetValue("40000 - 50000")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Equal(t, editNone, m.site.editing)
	assert.Equal(t, []string{"40,000-50,000", "29,000-38,000"}, d.PriceRanges())
	assert.True(t, d.Dirty())
}

func TestProductRowAndLabels(t *testing.T) {
	row := productRow(api.Product{Name: "Velvet Rose", Category: "Premium", Media: []string{"a", "b"}, Status: false}, 12)
	assert.Contains(t, row, "○")
	assert.Contains(t, row, "Velvet Rose")
	assert.Contains(t, row, " 2 media")

	premium := catalog.Premium
	active := true
	assert.Equal(t, "Premium", categoryLabel(&premium))
	assert.Equal(t, "All", categoryLabel(nil))
	assert.Equal(t, "Active", statusLabel(&active))
	assert.Equal(t, "All", statusLabel(nil))

	assert.Equal(t, "Page 2  loading...", pageLabel(2, catalog.ListView{Fetching: true}))
	assert.Equal(t, "Page 3  loading, showing page 2",
		pageLabel(3, catalog.ListView{Loaded: true, Placeholder: true, Page: api.ProductPage{CurrentPage: 2}}))
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "one two", singleLine("one\n  two "))
	assert.Equal(t, 0, clamp(5, 0, -1))
	assert.Equal(t, 3, clamp(5, 0, 3))
}

func TestHelpForEveryView(t *testing.T) {
	keys := DefaultKeyMap()
	for _, v := range []View{ViewLogin, ViewProducts, ViewCalendar, ViewWebsite} {
		b := keys.helpFor(v)
		assert.NotEmpty(t, b.ShortHelp(), v.String())
		assert.NotEmpty(t, b.FullHelp(), v.String())
	}
}

func TestNextThemeCycles(t *testing.T) {
	assert.Equal(t, "Slate", NextTheme("Dracula"))
	assert.Equal(t, "Dracula", NextTheme("Slate"))
	assert.Equal(t, "Dracula", NextTheme("unknown"))
	assert.Equal(t, "Dracula", GetTheme("missing").Name)
}

// fakeProducts answers product writes; other calls panic through the nil
// embedded interface.
type fakeProducts struct {
	api.Remote
	updates []api.ProductInput
}

func (f *fakeProducts) UpdateProduct(ctx context.Context, id string, in api.ProductInput) (api.Product, error) {
	f.updates = append(f.updates, in)
	return api.Product{ID: id, Name: in.Name, Category: in.Category, Description: in.Description, Media: in.Media}, nil
}

func newProductsModel(remote api.Remote) Model {
	cache := state.NewCache()
	svc := catalog.NewService(remote, cache, mutation.New(cache))
	return New(Options{
		Session: session.Session{User: session.User{Email: "a@b.c"}},
		Cache:   cache,
		Catalog: svc,
		Notices: notice.NewBoard(4, nil),
	})
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

func TestProductFormSavesOnlyWhenChanged(t *testing.T) {
	remote := &fakeProducts{}
	m := newProductsModel(remote)
	zero := 0
	updated, _ := m.openEditForm(api.Product{
		ID: "p1", Name: "Velvet", Category: "Premium", Description: "soft",
		Media: []string{"https://cdn.example/a.jpg"}, PrimaryIndex: &zero,
	})
	m = updated.(Model)
	require.True(t, m.form.active)

	m, cmd := press(t, m, runes("S"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to save", m.status)
	assert.False(t, m.form.saving)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.form.editing)
	m.form.input.SetValue("Velvet Rose")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.form.editing)
	assert.Equal(t, "Velvet Rose", m.form.draft.Name)

	m, cmd = press(t, m, runes("S"))
	require.NotNil(t, cmd)
	assert.True(t, m.form.saving)
	m, _ = press(t, m, cmd())

	require.Len(t, remote.updates, 1)
	assert.Equal(t, "Velvet Rose", remote.updates[0].Name)
	require.NotNil(t, remote.updates[0].PrimaryIndex)
	assert.Equal(t, 0, *remote.updates[0].PrimaryIndex)
	assert.False(t, m.form.active, "a successful save closes the form")
	assert.Equal(t, "Saved Velvet Rose", m.status)
}

func TestProductFormCoverFollowsSlots(t *testing.T) {
	m := newProductsModel(&fakeProducts{})
	one := 1
	updated, _ := m.openEditForm(api.Product{
		ID: "p1", Name: "Velvet", Category: "Premium", Description: "soft",
		Media: []string{"a", "b"}, PrimaryIndex: &one,
	})
	m = updated.(Model)

	// name, category, description, then the media slots.
	m.form.cursor = 4
	m, _ = press(t, m, runes("x"))
	assert.Equal(t, media.KindMarkedForRemoval, m.form.draft.Media[1].Kind())
	assert.Nil(t, m.form.draft.Primary, "removing the cover clears it")

	m, _ = press(t, m, runes("p"))
	assert.Nil(t, m.form.draft.Primary)
	assert.NotEmpty(t, m.form.err)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp}, runes("p"))
	require.NotNil(t, m.form.draft.Primary)
	assert.Equal(t, 0, *m.form.draft.Primary)
	assert.Empty(t, m.form.err)
}

func TestProductFormCategoryInput(t *testing.T) {
	m := newProductsModel(&fakeProducts{})
	m, _ = press(t, m, runes("n"))
	require.True(t, m.form.active)
	assert.Nil(t, m.form.original)
	assert.Len(t, m.form.draft.Media, catalog.MaxMediaSlots)
	assert.Equal(t, catalog.Premium, m.form.draft.Category)

	m.form.cursor = 1
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, catalog.Luxe, m.form.draft.Category)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.form.input.SetValue("silk")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.form.editing, "unknown category keeps the input open")
	assert.Equal(t, catalog.Luxe, m.form.draft.Category)

	m.form.input.SetValue("drapes")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, catalog.OtherDrapes, m.form.draft.Category)

	// Other Drapes is a filter, not a category products can be saved with.
	m.form.draft.Name = "Organza"
	m.form.draft.Description = "sheer"
	m, cmd := press(t, m, runes("S"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.form.err, "Unknown category")

	m, _ = press(t, m, productSavedMsg{err: &catalog.ValidationError{Field: "name", Message: "Product name is required"}})
	assert.True(t, m.form.active)
	assert.Equal(t, "Product name is required", m.form.err)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.form.active)
}

func TestProductFailureNoticePersistsUntilDismissed(t *testing.T) {
	m := newProductsModel(&fakeProducts{})
	m, _ = press(t, m, productActionMsg{
		verb: "Deleted",
		name: "Velvet",
		err:  &api.RemoteError{Message: "Product not found", Status: 404},
	})
	active := m.notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, notice.Error, active[0].Level)
	assert.Equal(t, "Failed to delete Velvet: Product not found", active[0].Message)
	assert.Zero(t, active[0].TTL)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.notices.Active())
}
