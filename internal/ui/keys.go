package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the console.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Products   key.Binding
	Calendar   key.Binding
	Website    key.Binding
	Logout     key.Binding
	Reload     key.Binding
	Dismiss    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// Products
	CycleCategory key.Binding
	CycleStatus   key.Binding
	Search        key.Binding
	ToggleStatus  key.Binding
	Delete        key.Binding
	NewProduct    key.Binding
	EditProduct   key.Binding
	SetCover      key.Binding

	// Calendar
	ToggleDay key.Binding

	// Website
	NextSection key.Binding
	Attach      key.Binding
	Remove      key.Binding
	AddPrice    key.Binding
	Save        key.Binding

	// Input
	Confirm   key.Binding
	Cancel    key.Binding
	Yes       key.Binding
	NextFocus key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Products: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "products"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "calendar"),
		),
		Website: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "website"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss notices"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "right"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "previous"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "next"),
		),

		CycleCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "category"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "status"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ToggleStatus: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "enable/disable"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		NewProduct: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		EditProduct: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		SetCover: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cover"),
		),

		ToggleDay: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "block/unblock"),
		),

		NextSection: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "section"),
		),
		Attach: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload file"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove"),
		),
		AddPrice: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add price"),
		),
		Save: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "save"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "up", "down"),
			key.WithHelp("tab", "next field"),
		),
	}
}

// bindings adapts a per-view binding list to help.KeyMap.
type bindings struct {
	short []key.Binding
	full  [][]key.Binding
}

func (b bindings) ShortHelp() []key.Binding  { return b.short }
func (b bindings) FullHelp() [][]key.Binding { return b.full }

// helpFor returns the bindings shown for v.
func (k keyMap) helpFor(v View) bindings {
	global := []key.Binding{k.Products, k.Calendar, k.Website, k.Dismiss, k.CycleTheme, k.Logout, k.Help, k.Quit}
	switch v {
	case ViewLogin:
		return bindings{
			short: []key.Binding{k.NextFocus, k.Confirm, k.Quit},
			full:  [][]key.Binding{{k.NextFocus, k.Confirm, k.Quit}},
		}
	case ViewProducts:
		actions := []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.CycleCategory, k.CycleStatus, k.Search, k.NewProduct, k.EditProduct, k.ToggleStatus, k.Delete, k.Reload}
		return bindings{
			short: []key.Binding{k.PrevPage, k.NextPage, k.CycleCategory, k.CycleStatus, k.Search, k.NewProduct, k.EditProduct, k.Delete, k.Help},
			full:  [][]key.Binding{actions, global},
		}
	case ViewCalendar:
		actions := []key.Binding{k.Up, k.Down, k.Left, k.Right, k.PrevPage, k.NextPage, k.ToggleDay, k.Reload}
		return bindings{
			short: []key.Binding{k.Left, k.Right, k.PrevPage, k.NextPage, k.ToggleDay, k.Help},
			full:  [][]key.Binding{actions, global},
		}
	default:
		actions := []key.Binding{k.Up, k.Down, k.NextSection, k.Confirm, k.Attach, k.Remove, k.AddPrice, k.Save, k.Reload}
		return bindings{
			short: []key.Binding{k.NextSection, k.Confirm, k.Attach, k.Remove, k.Save, k.Help},
			full:  [][]key.Binding{actions, global},
		}
	}
}

// formHelp returns the bindings shown while a product form is open.
func (k keyMap) formHelp() bindings {
	cancel := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	actions := []key.Binding{k.Up, k.Down, k.Confirm, k.Left, k.Right, k.Attach, k.Remove, k.SetCover, k.Save, cancel}
	return bindings{
		short: []key.Binding{k.Confirm, k.Attach, k.Remove, k.SetCover, k.Save, cancel},
		full:  [][]key.Binding{actions},
	}
}
