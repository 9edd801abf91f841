package entries

import (
	"github.com/julianstephens/nextstep/internal/calories"
	"github.com/julianstephens/nextstep/internal/cli"
	apperr "github.com/julianstephens/nextstep/internal/errors"
)

type ActivityListCmd struct {
	Date string `help:"Date to list. Defaults to the selected date."`
}

func (c *ActivityListCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	store, err := ctx.Session.Entries()
	if err != nil {
		return err
	}
	log := store.Activity(date)
	if len(log) == 0 {
		ctx.Printf("No activity logged for %s.\n", date)
		return nil
	}
	ctx.Println(cli.HeaderStyle.Render("Activity for " + date))
	for i, cal := range log {
		ctx.Printf("  %d. %s cal\n", i+1, cli.FormatNumber(cal))
	}
	ctx.Printf("  Total: %s cal\n", cli.FormatNumber(store.ActivityTotal(date)))
	return nil
}

type ActivityAddCmd struct {
	Calories float64 `arg:"" help:"Calories burned."`
	Date     string  `help:"Date to log on. Defaults to the selected date."`
}

func (c *ActivityAddCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Session.AppendActivity(ctx.Context(), date, c.Calories); err != nil {
		return err
	}
	ctx.Printf("✓ Logged %s cal on %s\n", cli.FormatNumber(c.Calories), date)
	return nil
}

type ActivityUpdateCmd struct {
	Index    int     `arg:"" help:"Entry number as shown by 'activity list'."`
	Calories float64 `arg:"" help:"New calorie value."`
	Date     string  `help:"Date to edit. Defaults to the selected date."`
}

func (c *ActivityUpdateCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Session.UpdateActivity(ctx.Context(), date, c.Index-1, c.Calories); err != nil {
		return err
	}
	ctx.Printf("✓ Entry %d on %s set to %s cal\n", c.Index, date, cli.FormatNumber(c.Calories))
	return nil
}

type ActivityRemoveCmd struct {
	Index int    `arg:"" help:"Entry number as shown by 'activity list'."`
	Date  string `help:"Date to edit. Defaults to the selected date."`
}

func (c *ActivityRemoveCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Session.RemoveActivity(ctx.Context(), date, c.Index-1); err != nil {
		return err
	}
	ctx.Printf("✓ Removed entry %d from %s\n", c.Index, date)
	return nil
}

// ActivityCalcCmd estimates calories for an exercise session and logs them.
type ActivityCalcCmd struct {
	Minutes   float64  `required:"" help:"Duration in minutes."`
	Intensity string   `required:"" help:"low, medium, high or very-high."`
	Weight    *float64 `help:"Body weight in pounds. Defaults to the most recent weight on or before the date."`
	Date      string   `help:"Date to log on. Defaults to the selected date."`
	DryRun    bool     `help:"Print the estimate without logging it."`
}

func (c *ActivityCalcCmd) Run(ctx *cli.Context) error {
	intensity, err := calories.ParseIntensity(c.Intensity)
	if err != nil {
		return err
	}
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	if c.DryRun {
		weight, err := c.weight(ctx, date)
		if err != nil {
			return err
		}
		total, err := calories.Estimate(weight, c.Minutes, intensity)
		if err != nil {
			return err
		}
		ctx.Printf("%s min of %s activity at %s lb: %s cal\n",
			cli.FormatNumber(c.Minutes), intensity.Label(), cli.FormatNumber(weight), cli.FormatNumber(total))
		return nil
	}

	total, err := ctx.Session.LogExercise(ctx.Context(), date, c.Minutes, intensity, c.Weight)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Logged %s cal (%s min, %s) on %s\n",
		cli.FormatNumber(total), cli.FormatNumber(c.Minutes), intensity.Label(), date)
	return nil
}

func (c *ActivityCalcCmd) weight(ctx *cli.Context, date string) (float64, error) {
	if c.Weight != nil {
		return *c.Weight, nil
	}
	store, err := ctx.Session.Entries()
	if err != nil {
		return 0, err
	}
	w, ok := store.MostRecentWeightUpTo(date)
	if !ok {
		return 0, apperr.Validation("weight", "no weight recorded on or before "+date+", pass --weight")
	}
	return w, nil
}
