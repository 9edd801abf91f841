package entries

import (
	"strconv"
	"strings"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/utils"
)

type ShowCmd struct {
	Date string `help:"Date to show (YYYY-MM-DD, today or yesterday). Defaults to the selected date."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	st, err := ctx.Session.Settings()
	if err != nil {
		return err
	}
	store, err := ctx.Session.Entries()
	if err != nil {
		return err
	}
	rec := store.Record(date)

	title := date
	if t, err := utils.ParseDate(date); err == nil {
		title = t.Format("Mon, Jan 2 2006")
	}
	ctx.Println(cli.HeaderStyle.Render(title + " (phase " + strconv.Itoa(st.Phase) + ")"))

	for _, label := range category.ForPhase(st.Phase) {
		value := "-"
		switch label {
		case category.PhysicalActivity:
			value = cli.FormatNumber(rec.ActivityTotal())
		case category.Weight:
			if w, ok := rec.Number(label); ok {
				value = cli.FormatNumber(w)
			}
		default:
			value = cli.FormatNumber(rec.Get(label))
		}
		ctx.Printf("  %s %s\n", cli.LabelStyle.Render(label), value)
	}
	if n := len(rec.Activity); n > 0 {
		ctx.Println(cli.MutedStyle.Render("  " + strconv.Itoa(n) + " activity entries, see 'activity list'"))
	}
	if rec.IsEmpty() {
		ctx.Println(cli.MutedStyle.Render("  Nothing recorded for this day."))
		return nil
	}
	if extra := offCatalog(rec.Keys(), st.Phase); len(extra) > 0 {
		ctx.Println(cli.MutedStyle.Render("  Also recorded: " + strings.Join(extra, ", ")))
	}
	return nil
}

// offCatalog returns the record keys the phase's catalog does not show.
func offCatalog(keys []string, phase int) []string {
	shown := map[string]bool{category.ActivityEntries: true}
	for _, l := range category.ForPhase(phase) {
		shown[l] = true
	}
	var out []string
	for _, k := range keys {
		if !shown[k] {
			out = append(out, k)
		}
	}
	return out
}

type SetCmd struct {
	Category string  `arg:"" help:"Category name, e.g. Entrees."`
	Value    float64 `arg:"" help:"New value."`
	Date     string  `help:"Date to edit. Defaults to the selected date."`
}

func (c *SetCmd) Run(ctx *cli.Context) error {
	label, date, err := resolve(ctx, c.Category, c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Session.SetValue(ctx.Context(), date, label, c.Value); err != nil {
		return err
	}
	ctx.Printf("✓ %s on %s set to %s\n", label, date, cli.FormatNumber(c.Value))
	return nil
}

type IncCmd struct {
	Category string `arg:"" help:"Category name."`
	Date     string `help:"Date to edit. Defaults to the selected date."`
}

func (c *IncCmd) Run(ctx *cli.Context) error {
	label, date, err := resolve(ctx, c.Category, c.Date)
	if err != nil {
		return err
	}
	v, err := ctx.Session.Increment(ctx.Context(), date, label)
	if err != nil {
		return err
	}
	ctx.Printf("✓ %s on %s: %s\n", label, date, cli.FormatNumber(v))
	return nil
}

type DecCmd struct {
	Category string `arg:"" help:"Category name."`
	Date     string `help:"Date to edit. Defaults to the selected date."`
}

func (c *DecCmd) Run(ctx *cli.Context) error {
	label, date, err := resolve(ctx, c.Category, c.Date)
	if err != nil {
		return err
	}
	v, err := ctx.Session.Decrement(ctx.Context(), date, label)
	if err != nil {
		return err
	}
	ctx.Printf("✓ %s on %s: %s\n", label, date, cli.FormatNumber(v))
	return nil
}

func resolve(ctx *cli.Context, input, dateFlag string) (string, string, error) {
	label, err := cli.ResolveCategory(input)
	if err != nil {
		return "", "", err
	}
	date, err := ctx.ResolveDate(dateFlag)
	if err != nil {
		return "", "", err
	}
	return label, date, nil
}
