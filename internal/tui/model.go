// Package tui is the terminal console over the order views.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/listview"
	"github.com/Additional-Code/frostline/internal/service/order"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

const requestTimeout = 15 * time.Second

// Console is what the terminal needs from the order service.
type Console interface {
	Snapshot(ctx context.Context, sess session.Session, name order.ViewName) (listview.Snapshot, error)
	Filters(ctx context.Context, sess session.Session, name order.ViewName) (listview.FilterOptions, error)
	ApplyFilter(ctx context.Context, sess session.Session, name order.ViewName, dim listview.Dimension, value string) (listview.Snapshot, error)
	ResetFilters(ctx context.Context, sess session.Session, name order.ViewName) (listview.Snapshot, error)
	Reload(ctx context.Context, sess session.Session, name order.ViewName) (listview.Snapshot, error)
	LoadMore(ctx context.Context, sess session.Session, name order.ViewName) (listview.Snapshot, error)
	GoToPage(ctx context.Context, sess session.Session, name order.ViewName, n int) (listview.Snapshot, error)
	Transition(ctx context.Context, sess session.Session, name order.ViewName, orderID int64, target string) (listview.Snapshot, error)
}

type snapshotMsg struct {
	view order.ViewName
	snap listview.Snapshot
	err  error
}

type filtersMsg struct {
	view order.ViewName
	opts listview.FilterOptions
	err  error
}

type viewState struct {
	snap    listview.Snapshot
	opts    listview.FilterOptions
	cursor  int
	loaded  bool
	loading bool
}

// Model is the bubbletea model of the console.
type Model struct {
	console Console
	sess    session.Session
	views   []order.ViewName
	active  int
	state   map[order.ViewName]*viewState

	spinner spinner.Model
	help    help.Model
	notice  string
	width   int
	height  int
}

// New builds a console Model for an open session.
func New(console Console, sess session.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	views := order.Views()
	state := make(map[order.ViewName]*viewState, len(views))
	for _, v := range views {
		state[v] = &viewState{}
	}
	return Model{
		console: console,
		sess:    sess,
		views:   views,
		state:   state,
		spinner: sp,
		help:    help.New(),
	}
}

// Run starts the console on the terminal and blocks until the user quits.
func Run(ctx context.Context, console Console, sess session.Session) error {
	_, err := tea.NewProgram(New(console, sess), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.open(m.current())
}

func (m Model) current() order.ViewName {
	return m.views[m.active]
}

// open loads a view and its filter options on first display.
func (m Model) open(name order.ViewName) tea.Cmd {
	st := m.state[name]
	if st.loaded || st.loading {
		return nil
	}
	st.loading = true
	return tea.Batch(
		m.fetch(name, func(ctx context.Context) (listview.Snapshot, error) {
			return m.console.Snapshot(ctx, m.sess, name)
		}),
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			opts, err := m.console.Filters(ctx, m.sess, name)
			return filtersMsg{view: name, opts: opts, err: err}
		},
		m.spinner.Tick,
	)
}

func (m Model) fetch(name order.ViewName, op func(ctx context.Context) (listview.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := op(ctx)
		return snapshotMsg{view: name, snap: snap, err: err}
	}
}

// do runs op against the active view with the spinner on.
func (m *Model) do(op func(ctx context.Context, name order.ViewName) (listview.Snapshot, error)) tea.Cmd {
	name := m.current()
	m.state[name].loading = true
	m.notice = ""
	return tea.Batch(m.fetch(name, func(ctx context.Context) (listview.Snapshot, error) {
		return op(ctx, name)
	}), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.anyLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		st := m.state[msg.view]
		st.loading = false
		if msg.snap.State != "" {
			st.snap = msg.snap
			st.loaded = true
		}
		if st.cursor >= len(st.snap.Orders) {
			st.cursor = max(len(st.snap.Orders)-1, 0)
		}
		if msg.err != nil && st.snap.State != listview.StateFailed {
			m.notice = errorbank.From(msg.err).Message()
		}
		return m, nil

	case filtersMsg:
		if msg.err == nil {
			m.state[msg.view].opts = msg.opts
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.state[m.current()]

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Switch):
		m.active = (m.active + 1) % len(m.views)
		m.notice = ""
		return m, m.open(m.current())

	case key.Matches(msg, keys.Up):
		if st.cursor > 0 {
			st.cursor--
		}

	case key.Matches(msg, keys.Down):
		if st.cursor < len(st.snap.Orders)-1 {
			st.cursor++
		}

	case st.loading:
		// one request per view at a time

	case key.Matches(msg, keys.Reload):
		return m, m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
			return m.console.Reload(ctx, m.sess, name)
		})

	case key.Matches(msg, keys.Act):
		cards := st.snap.Cards()
		if st.cursor >= len(cards) || len(cards[st.cursor].Actions) == 0 {
			return m, nil
		}
		card := cards[st.cursor]
		target := string(card.Actions[0].Target)
		return m, m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
			return m.console.Transition(ctx, m.sess, name, card.Order.ID, target)
		})

	case key.Matches(msg, keys.More):
		if st.snap.Discipline == listview.PageNumbers {
			next := st.snap.Page + 1
			return m, m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
				return m.console.GoToPage(ctx, m.sess, name, next)
			})
		}
		return m, m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
			return m.console.LoadMore(ctx, m.sess, name)
		})

	case key.Matches(msg, keys.Previous):
		if st.snap.Discipline != listview.PageNumbers {
			return m, nil
		}
		prev := st.snap.Page - 1
		return m, m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
			return m.console.GoToPage(ctx, m.sess, name, prev)
		})

	case key.Matches(msg, keys.Status):
		return m, m.cycle(listview.DimensionStatus, st.opts.Statuses)
	case key.Matches(msg, keys.Operator):
		return m, m.cycle(listview.DimensionOperator, st.opts.Operators)
	case key.Matches(msg, keys.Product):
		return m, m.cycle(listview.DimensionProduct, st.opts.Products)

	case key.Matches(msg, keys.Clear):
		return m, m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
			return m.console.ResetFilters(ctx, m.sess, name)
		})
	}
	return m, nil
}

// cycle moves dim to the next option; past the last one it returns to All.
func (m *Model) cycle(dim listview.Dimension, options []entity.Option) tea.Cmd {
	st := m.state[m.current()]
	current := st.snap.Filters[dim]
	if current == "" {
		current = listview.All
	}

	next := listview.All
	if current == listview.All && len(options) > 0 {
		next = strconv.FormatInt(options[0].ID, 10)
	}
	for i, opt := range options {
		if strconv.FormatInt(opt.ID, 10) == current && i+1 < len(options) {
			next = strconv.FormatInt(options[i+1].ID, 10)
			break
		}
	}
	st.cursor = 0
	return m.do(func(ctx context.Context, name order.ViewName) (listview.Snapshot, error) {
		return m.console.ApplyFilter(ctx, m.sess, name, dim, next)
	})
}

func (m Model) anyLoading() bool {
	for _, st := range m.state {
		if st.loading {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	var b strings.Builder
	st := m.state[m.current()]

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.filterLine(st))
	b.WriteString("\n\n")

	switch {
	case !st.loaded && st.loading:
		b.WriteString(m.spinner.View() + " Cargando órdenes...")
	case st.snap.State == listview.StateFailed:
		b.WriteString(errorBanner.Render(st.snap.Message + ". Press r to retry"))
	case st.snap.State == listview.StateEmpty:
		b.WriteString(noticeStyle.Render(st.snap.Message))
	default:
		b.WriteString(m.cards(st))
	}

	b.WriteString("\n")
	b.WriteString(m.footer(st))
	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice))
	}
	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func (m Model) header() string {
	tabs := make([]string, 0, len(m.views))
	for i, v := range m.views {
		style := tabStyle
		if i == m.active {
			style = activeTab
		}
		tabs = append(tabs, style.Render(viewTitle(v)))
	}
	user := dimStyle.Render(strings.TrimSpace(m.sess.Employee.Name + " " + m.sess.Employee.Surname))
	return lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render("Frostline "), lipgloss.JoinHorizontal(lipgloss.Top, tabs...), "  ", user)
}

func viewTitle(v order.ViewName) string {
	switch v {
	case order.ViewProduction:
		return "Órdenes de producción"
	case order.ViewSales:
		return "Órdenes de venta"
	default:
		return string(v)
	}
}

func (m Model) filterLine(st *viewState) string {
	dims := []struct {
		dim     listview.Dimension
		label   string
		options []entity.Option
	}{
		{listview.DimensionStatus, "estado", st.opts.Statuses},
		{listview.DimensionOperator, "operario", st.opts.Operators},
		{listview.DimensionProduct, "producto", st.opts.Products},
	}
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		if len(d.options) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", d.label, optionLabel(d.options, st.snap.Filters[d.dim])))
	}
	if len(parts) == 0 {
		return ""
	}
	return filterStyle.Render(strings.Join(parts, "  ·  "))
}

func optionLabel(options []entity.Option, value string) string {
	if value == "" || value == listview.All {
		return "todos"
	}
	for _, o := range options {
		if strconv.FormatInt(o.ID, 10) == value {
			return o.Label
		}
	}
	return value
}

func (m Model) cards(st *viewState) string {
	cards := st.snap.Cards()
	from, to := 0, len(cards)
	if visible := m.visibleCards(); visible > 0 && to > visible {
		from = min(max(st.cursor-visible/2, 0), to-visible)
		to = from + visible
	}

	rendered := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		style := cardStyle
		if i == st.cursor {
			style = selectedStyle
		}
		rendered = append(rendered, style.Render(renderCard(cards[i])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m Model) visibleCards() int {
	if m.height <= 0 {
		return 0
	}
	return max((m.height-8)/5, 1)
}

func renderCard(card listview.Card) string {
	o := card.Order
	title := fmt.Sprintf("#%d", o.ID)
	if o.Product != nil {
		title += "  " + o.Product.Name
	}
	if o.Client != nil {
		title += "  " + o.Client.Name
	}
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, badgeStyle(string(o.Status.Phase())).Render(card.Badge), " ", title),
	}

	detail := fmt.Sprintf("cantidad %g", o.Quantity)
	if o.Operator != nil {
		detail += "  ·  " + o.Operator.FullName()
	}
	if card.Priority != "" {
		detail += "  ·  prioridad " + card.Priority
	}
	if !o.CreatedAt.IsZero() {
		detail += "  ·  " + o.CreatedAt.Local().Format("02/01 15:04")
	}
	lines = append(lines, dimStyle.Render(detail))

	for _, a := range card.Actions {
		lines = append(lines, actionStyle.Render("[enter] "+a.Label))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer(st *viewState) string {
	if !st.loaded {
		return ""
	}
	var parts []string
	switch st.snap.Discipline {
	case listview.PageNumbers:
		parts = append(parts, fmt.Sprintf("página %d", st.snap.Page))
		if st.snap.HasPrevious {
			parts = append(parts, "b anterior")
		}
		if st.snap.HasMore {
			parts = append(parts, "m siguiente")
		}
	default:
		parts = append(parts, fmt.Sprintf("%d de %d órdenes", st.snap.Shown(), st.snap.Total))
		if st.snap.HasMore {
			parts = append(parts, "m cargar más")
		}
	}
	if st.loading {
		parts = append(parts, m.spinner.View())
	}
	return dimStyle.Render(strings.Join(parts, "  ·  "))
}
