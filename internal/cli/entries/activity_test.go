package entries

import (
	"strings"
	"testing"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/cli/clitest"
	apperr "github.com/julianstephens/nextstep/internal/errors"
)

func TestActivityLifecycle(t *testing.T) {
	env := clitest.New(t, "ann")
	date := "2024-01-02"

	for _, cal := range []float64{100, 250, 40} {
		if err := (&ActivityAddCmd{Calories: cal, Date: date}).Run(env.Ctx); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	if err := (&ActivityUpdateCmd{Index: 2, Calories: 200, Date: date}).Run(env.Ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := (&ActivityRemoveCmd{Index: 1, Date: date}).Run(env.Ctx); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	store, _ := env.Ctx.Session.Entries()
	got := store.Activity(date)
	if len(got) != 2 || got[0] != 200 || got[1] != 40 {
		t.Errorf("expected [200 40], got %v", got)
	}

	env.Out.Reset()
	if err := (&ActivityListCmd{Date: date}).Run(env.Ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	out := env.Out.String()
	for _, want := range []string{"1. 200 cal", "2. 40 cal", "Total: 240 cal"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestActivityIndexOutOfRange(t *testing.T) {
	env := clitest.New(t, "ann")
	err := (&ActivityRemoveCmd{Index: 1, Date: "2024-01-02"}).Run(env.Ctx)
	if !apperr.Is(err, apperr.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	err = (&ActivityUpdateCmd{Index: 0, Calories: 5, Date: "2024-01-02"}).Run(env.Ctx)
	if !apperr.Is(err, apperr.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for index 0, got %v", err)
	}
}

func TestActivityCalc(t *testing.T) {
	env := clitest.New(t, "ann")
	if err := env.Ctx.Session.SetValue(env.Ctx.Context(), "2024-01-01", category.Weight, 150); err != nil {
		t.Fatalf("set weight: %v", err)
	}

	cmd := &ActivityCalcCmd{Minutes: 30, Intensity: "medium", Date: "2024-01-02", DryRun: true}
	if err := cmd.Run(env.Ctx); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(env.Out.String(), "150 cal") {
		t.Errorf("unexpected dry run output: %q", env.Out.String())
	}
	store, _ := env.Ctx.Session.Entries()
	if n := len(store.Activity("2024-01-02")); n != 0 {
		t.Fatalf("dry run logged %d entries", n)
	}

	cmd.DryRun = false
	if err := cmd.Run(env.Ctx); err != nil {
		t.Fatalf("calc failed: %v", err)
	}
	if got := store.Activity("2024-01-02"); len(got) != 1 || got[0] != 150 {
		t.Errorf("expected [150] logged, got %v", got)
	}
}

func TestActivityCalcErrors(t *testing.T) {
	env := clitest.New(t, "ann")

	err := (&ActivityCalcCmd{Minutes: 30, Intensity: "extreme", Date: "2024-01-02"}).Run(env.Ctx)
	if !apperr.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for intensity, got %v", err)
	}
	err = (&ActivityCalcCmd{Minutes: 30, Intensity: "low", Date: "2024-01-02", DryRun: true}).Run(env.Ctx)
	if !apperr.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error without a weight, got %v", err)
	}
}
