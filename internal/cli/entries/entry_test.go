package entries

import (
	"regexp"
	"strings"
	"testing"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/cli/clitest"
	apperr "github.com/julianstephens/nextstep/internal/errors"
)

func TestSetAndShow(t *testing.T) {
	env := clitest.New(t, "ann")

	if err := (&SetCmd{Category: "entrees", Value: 3, Date: "2024-01-02"}).Run(env.Ctx); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := (&SetCmd{Category: "Days In The Box", Value: 1, Date: "2024-01-02"}).Run(env.Ctx); err != nil {
		t.Fatalf("set legacy label failed: %v", err)
	}

	store, err := env.Ctx.Session.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if got := store.Value("2024-01-02", category.Entrees); got != 3 {
		t.Errorf("expected Entrees 3, got %v", got)
	}
	if got := store.Value("2024-01-02", category.DaysIn10Box); got != 1 {
		t.Errorf("expected legacy label stored canonically, got %v", got)
	}

	env.Out.Reset()
	if err := (&ShowCmd{Date: "2024-01-02"}).Run(env.Ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	out := env.Out.String()
	if !strings.Contains(out, "Tue, Jan 2 2024 (phase 1)") {
		t.Errorf("missing header: %q", out)
	}
	if !regexp.MustCompile(`Entrees\s+3\n`).MatchString(out) {
		t.Errorf("missing Entrees row: %q", out)
	}
	if !regexp.MustCompile(`Today's Weight\s+-\n`).MatchString(out) {
		t.Errorf("expected unset weight shown as '-': %q", out)
	}
}

func TestShowListsOffCatalogKeys(t *testing.T) {
	env := clitest.New(t, "ann")

	if err := (&SetCmd{Category: "days in 1.5 box", Value: 4, Date: "2024-01-02"}).Run(env.Ctx); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := (&ShowCmd{Date: "2024-01-02"}).Run(env.Ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if out := env.Out.String(); !strings.Contains(out, "Also recorded: Days In 1.5 Box") {
		t.Errorf("phase 2 key not listed in phase 1 view: %q", out)
	}

	env.Out.Reset()
	if err := (&ShowCmd{Date: "2024-01-01"}).Run(env.Ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	out := env.Out.String()
	if !strings.Contains(out, "Nothing recorded for this day.") {
		t.Errorf("empty day not reported: %q", out)
	}
	if strings.Contains(out, "Also recorded") {
		t.Errorf("empty day listed extra keys: %q", out)
	}
}

func TestIncDecDefaultsToToday(t *testing.T) {
	env := clitest.New(t, "ann")

	for i := 0; i < 2; i++ {
		if err := (&IncCmd{Category: "Bars"}).Run(env.Ctx); err != nil {
			t.Fatalf("inc failed: %v", err)
		}
	}
	if err := (&DecCmd{Category: "bars"}).Run(env.Ctx); err != nil {
		t.Fatalf("dec failed: %v", err)
	}

	store, _ := env.Ctx.Session.Entries()
	if got := store.Value("2024-01-03", category.Bars); got != 1 {
		t.Errorf("expected Bars 1 on today, got %v", got)
	}
	if !strings.Contains(env.Out.String(), "Bars on 2024-01-03: 1") {
		t.Errorf("unexpected output: %q", env.Out.String())
	}
}

func TestDateFallsBackToSelectedDate(t *testing.T) {
	env := clitest.New(t, "ann")
	if err := env.Ctx.Session.SetSelectedDate(env.Ctx.Context(), "2023-12-25"); err != nil {
		t.Fatalf("set selected date: %v", err)
	}
	if err := (&IncCmd{Category: "Entrees"}).Run(env.Ctx); err != nil {
		t.Fatalf("inc failed: %v", err)
	}
	store, _ := env.Ctx.Session.Entries()
	if got := store.Value("2023-12-25", category.Entrees); got != 1 {
		t.Errorf("expected write on selected date, got %v", got)
	}
}

func TestEntryErrors(t *testing.T) {
	env := clitest.New(t, "ann")

	if err := (&SetCmd{Category: "Cookies", Value: 1}).Run(env.Ctx); !apperr.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unknown category, got %v", err)
	}
	if err := (&SetCmd{Category: "Bars", Value: 1, Date: "2024-13-01"}).Run(env.Ctx); !apperr.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for bad date, got %v", err)
	}

	signedOut := clitest.New(t, "")
	if err := (&IncCmd{Category: "Bars", Date: "2024-01-01"}).Run(signedOut.Ctx); !apperr.Is(err, apperr.ErrNoCurrentUser) {
		t.Errorf("expected ErrNoCurrentUser, got %v", err)
	}
}
