package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/minjae-dev/quantpipe/internal/contracts"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

// TablePresenter renders a ranked result set as a terminal table.
type TablePresenter struct {
	out io.Writer
}

// NewTablePresenter creates a presenter writing to out.
func NewTablePresenter(out io.Writer) *TablePresenter {
	return &TablePresenter{out: out}
}

// Present renders the set. Enrichment columns show dashes when a row carries
// no outcome stats.
func (p *TablePresenter) Present(set *contracts.RankedSignalSet) error {
	if set.Empty() {
		return nil
	}

	var b strings.Builder

	title := fmt.Sprintf("Top %d %s signals", set.Len(), set.Family)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	header := fmt.Sprintf("%-4s %-10s %-12s %-20s %8s %8s %9s %8s",
		"#", "SYMBOL", "DATE", "SIGNAL", "SCORE", "RSI", "RET20D", "WIN%")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, sig := range set.Signals {
		winRate := "-"
		if sig.Matches > 0 {
			winRate = fmt.Sprintf("%.0f%%", sig.SuccessRate*100)
		}

		ret := fmt.Sprintf("%+.2f%%", sig.Return20D*100)
		retStyled := positiveStyle.Render(ret)
		if sig.Return20D < 0 {
			retStyled = negativeStyle.Render(ret)
		}

		line := fmt.Sprintf("%-4d %-10s %-12s %-20s %8s %8.1f %9s %8s",
			i+1,
			sig.Symbol,
			sig.Date.Format("2006-01-02"),
			sig.SignalType,
			sig.Score.StringFixed(2),
			sig.RSI,
			retStyled,
			winRate,
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	if _, err := fmt.Fprint(p.out, b.String()); err != nil {
		return fmt.Errorf("render ranking table: %w", err)
	}
	return nil
}
