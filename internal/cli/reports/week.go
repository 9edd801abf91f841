package reports

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/weekly"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	valueStyle = lipgloss.NewStyle().
			Width(8).
			Align(lipgloss.Right)
)

type WeekCmd struct {
	Date string `help:"Any date inside the week. Defaults to the selected date, then today."`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	var date string
	if c.Date != "" {
		d, err := ctx.ResolveDate(c.Date)
		if err != nil {
			return err
		}
		date = d
	}
	summary, err := ctx.Session.Week(date)
	if err != nil {
		return err
	}
	ctx.Println(Render(summary))
	return nil
}

// Render draws the weekly totals as a bordered table.
func Render(s weekly.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Week of " + s.Label()))
	for _, label := range s.Categories {
		b.WriteString("\n")
		b.WriteString(cli.LabelStyle.Render(label))
		b.WriteString(valueStyle.Render(cli.FormatNumber(s.Totals[label])))
	}
	b.WriteString("\n")
	weight := "-"
	if s.Weight != nil {
		weight = cli.FormatNumber(*s.Weight)
	}
	b.WriteString(cli.LabelStyle.Render(category.Weight))
	b.WriteString(valueStyle.Render(weight))
	return boxStyle.Render(b.String())
}
