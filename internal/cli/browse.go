package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mosaic/pkg/api"
	"github.com/matzehuels/mosaic/pkg/errors"
	"github.com/matzehuels/mosaic/pkg/feed"
	"github.com/matzehuels/mosaic/pkg/masonry"
)

// pixelsPerCell converts terminal columns to the pixel widths the balancer
// works in.
const pixelsPerCell = 8

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		refresh   bool
		noCache   bool
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "browse <resource> [id]",
		Short: "Scroll through a resource interactively",
		Long: `Scroll through a resource interactively.

Pages are loaded as the selection approaches the end of the list. Gallery
resources also show how their media would be balanced into columns at the
current terminal width.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeResources,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := api.Lookup(args[0])
			if err != nil {
				return err
			}
			var id string
			if len(args) > 1 {
				id = args[1]
			}

			client, cc, err := c.newClient(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer cc.Close()

			ctrl, err := res.Feed(client, id, api.PageOptions{Refresh: refresh}, feed.WithLogger(c.Logger))
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}

			m := newBrowseModel(cmd.Context(), ctrl, res.Media, cfg.Layout.ColumnWidth, cfg.Layout.Gap)
			m.proximity = feed.Proximity{Threshold: threshold}
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if bm, ok := final.(browseModel); ok {
				printStats(len(bm.items), len(ctrl.Pages()), bm.state.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached pages")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().IntVar(&threshold, "threshold", 5, "load the next page when this many items remain below the selection")

	return cmd
}

// =============================================================================
// browseModel - Infinite scroll over a feed
// =============================================================================

// pageMsg reports that a LoadNext or Retry call returned.
type pageMsg struct {
	err error
}

// browseModel is the bubbletea model for the browse command.
type browseModel struct {
	ctx       context.Context
	feed      *feed.Controller[api.Item]
	balancer  *masonry.Balancer[api.Media]
	proximity feed.Proximity
	keys      browseKeyMap
	help      help.Model

	items   []api.Item
	state   feed.State
	err     error
	loading bool

	cursor int
	offset int
	height int
	width  int
}

func newBrowseModel(ctx context.Context, f *feed.Controller[api.Item], media bool, columnWidth, gap float64) browseModel {
	m := browseModel{
		ctx:       ctx,
		feed:      f,
		proximity: feed.Proximity{Threshold: 5},
		keys:      newBrowseKeyMap(),
		help:      help.New(),
		height:    15,
		loading:   true,
	}
	if media {
		m.balancer = masonry.NewBalancer[api.Media](columnWidth, gap)
	}
	return m
}

func (m browseModel) Init() tea.Cmd {
	return m.loadNext()
}

func (m browseModel) loadNext() tea.Cmd {
	ctx, f := m.ctx, m.feed
	return func() tea.Msg {
		return pageMsg{err: f.LoadNext(ctx)}
	}
}

func (m browseModel) retry() tea.Cmd {
	ctx, f := m.ctx, m.feed
	return func() tea.Msg {
		return pageMsg{err: f.Retry(ctx)}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pageMsg:
		m.loading = false
		m.items = m.feed.Items()
		m.state = m.feed.State()
		m.err = m.feed.Err()
		if m.err == nil {
			m.err = msg.err
		}
		m.keys.Retry.SetEnabled(m.state == feed.StateError && feed.IsRetryable(m.err))
		if m.balancer != nil {
			m.balancer.SetItems(api.MediaItems(m.items))
		}
		return m, m.maybeLoad()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.height = max(msg.Height-8, 5)
		if m.balancer != nil {
			m.balancer.Resize(float64(msg.Width * pixelsPerCell))
		}
		m.scrollTo(m.cursor)
		return m, m.maybeLoad()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.scrollTo(m.cursor - 1)
		case key.Matches(msg, m.keys.Down):
			m.scrollTo(m.cursor + 1)
		case key.Matches(msg, m.keys.PageUp):
			m.scrollTo(m.cursor - m.height)
		case key.Matches(msg, m.keys.PageDown):
			m.scrollTo(m.cursor + m.height)
		case key.Matches(msg, m.keys.Top):
			m.scrollTo(0)
		case key.Matches(msg, m.keys.Bottom):
			m.scrollTo(len(m.items) - 1)
		case key.Matches(msg, m.keys.Retry):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.retry()
		}
		return m, m.maybeLoad()
	}
	return m, nil
}

// scrollTo moves the selection to i, clamped to the loaded items, and keeps
// it inside the visible window.
func (m *browseModel) scrollTo(i int) {
	m.cursor = max(min(i, len(m.items)-1), 0)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// lastVisible is the index of the bottom row of the window.
func (m browseModel) lastVisible() int {
	return min(m.offset+m.height, len(m.items)) - 1
}

// maybeLoad requests the next page when the window is near the end of the
// loaded items. Failed feeds wait for an explicit retry.
func (m *browseModel) maybeLoad() tea.Cmd {
	if m.loading || m.state != feed.StateIdle {
		return nil
	}
	if !m.proximity.Near(m.lastVisible(), len(m.items)) {
		return nil
	}
	m.loading = true
	return m.loadNext()
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.feed.Key()))
	b.WriteString("\n")
	b.WriteString("\n")

	for i := m.offset; i <= m.lastVisible(); i++ {
		it := m.items[i]
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		b.WriteString(cursor)
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%-10s ", it.ItemID())))
		b.WriteString(style.Render(it.Label()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status())
	if m.balancer != nil {
		b.WriteString("\n")
		b.WriteString(m.columns())
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// status summarises the feed state on one line.
func (m browseModel) status() string {
	pos := 0
	if len(m.items) > 0 {
		pos = m.cursor + 1
	}
	line := listDimStyle.Render(fmt.Sprintf("  [%d/%d] ", pos, len(m.items)))
	switch {
	case m.loading:
		return line + StyleHighlight.Render("loading...")
	case m.state == feed.StateError:
		msg := errors.UserMessage(errors.FromFetch(m.err))
		if m.keys.Retry.Enabled() {
			msg += " (r to retry)"
		}
		return line + StyleWarning.Render(msg)
	case m.state == feed.StateExhausted:
		return line + StyleSuccess.Render("end of feed")
	default:
		return line + listDimStyle.Render(m.state.String())
	}
}

// columns renders one bar per masonry column, scaled to the tallest.
func (m browseModel) columns() string {
	plan := m.balancer.Plan()
	tallest := plan.Height()
	parts := make([]string, len(plan.Columns))
	for i, col := range plan.Columns {
		bar := 0
		if tallest > 0 && len(col) > 0 {
			bar = int(8 * (plan.Heights[i] - plan.Gap) / tallest)
		}
		parts[i] = fmt.Sprintf("%2d %s", len(col), strings.Repeat("█", max(bar, 0)))
	}
	return columnStyle.Render(fmt.Sprintf("  %d columns of %.0fpx", len(plan.Columns), plan.ColumnWidth)) +
		"\n  " + strings.Join(parts, "  ")
}

// browseKeyMap holds the key bindings of the browse view.
type browseKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Retry    key.Binding
	Quit     key.Binding
}

func newBrowseKeyMap() browseKeyMap {
	retry := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry"))
	retry.SetEnabled(false)
	return browseKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", " "), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Retry:    retry,
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageDown, k.Retry, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Top, k.Bottom, k.Retry, k.Quit},
	}
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	columnStyle       = lipgloss.NewStyle().Foreground(colorGray)
)
