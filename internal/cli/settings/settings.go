package settings

import (
	"time"

	"github.com/julianstephens/nextstep/internal/cli"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Phase     *int    `help:"Program phase (1 or 2)."`
	Date      *string `help:"Selected date (YYYY-MM-DD, today or yesterday)."`
	WeekStart *string `help:"First day of the week, e.g. sunday, mon or 1."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	if c.List {
		st, err := ctx.Session.Settings()
		if err != nil {
			return err
		}
		selected := st.SelectedDate
		if selected == "" {
			selected = "(today)"
		}
		ctx.Println("Current Settings:")
		ctx.Printf("  Phase:          %d\n", st.Phase)
		ctx.Printf("  Selected Date:  %s\n", selected)
		ctx.Printf("  Week Starts On: %s\n", time.Weekday(st.WeekStartDay))
		return nil
	}

	updated := false
	if c.Phase != nil {
		if err := ctx.Session.SetPhase(ctx.Context(), *c.Phase); err != nil {
			return err
		}
		updated = true
	}
	if c.Date != nil {
		// An empty value clears the selection so commands follow today.
		var date string
		if *c.Date != "" {
			d, err := ctx.ResolveDate(*c.Date)
			if err != nil {
				return err
			}
			date = d
		}
		if err := ctx.Session.SetSelectedDate(ctx.Context(), date); err != nil {
			return err
		}
		updated = true
	}
	if c.WeekStart != nil {
		wd, err := cli.ParseWeekday(*c.WeekStart)
		if err != nil {
			return err
		}
		if err := ctx.Session.SetWeekStartDay(ctx.Context(), int(wd)); err != nil {
			return err
		}
		updated = true
	}

	if updated {
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}
	return nil
}
