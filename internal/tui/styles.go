package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DD3FC"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#94A3B8"))
	activeTab     = tabStyle.Foreground(lipgloss.Color("#0F172A")).Background(lipgloss.Color("#7DD3FC")).Bold(true)
	filterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	selectedStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7DD3FC")).Padding(0, 1)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#334155")).Padding(0, 1)
	errorBanner   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FEE2E2")).Background(lipgloss.Color("#B91C1C")).Padding(0, 1)
	noticeStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#FBBF24"))
	actionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
)

var badgeColors = map[string]lipgloss.Color{
	"waiting":     lipgloss.Color("#F59E0B"),
	"in_progress": lipgloss.Color("#3B82F6"),
	"finished":    lipgloss.Color("#22C55E"),
	"cancelled":   lipgloss.Color("#EF4444"),
}

func badgeStyle(phase string) lipgloss.Style {
	color, ok := badgeColors[phase]
	if !ok {
		color = lipgloss.Color("#64748B")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F172A")).Background(color).Padding(0, 1)
}
