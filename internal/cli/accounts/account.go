package accounts

import (
	"github.com/julianstephens/nextstep/internal/cli"
)

type SignInCmd struct {
	Handle string `arg:"" help:"Username, usually an email address."`
}

func (c *SignInCmd) Run(ctx *cli.Context) error {
	id, err := ctx.Session.SignIn(ctx.Context(), c.Handle)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Signed in as %s\n", id)
	return nil
}

type SignOutCmd struct{}

func (c *SignOutCmd) Run(ctx *cli.Context) error {
	id, err := ctx.Session.User()
	if err != nil {
		return err
	}
	if err := ctx.Session.SignOut(ctx.Context()); err != nil {
		return err
	}
	ctx.Printf("✓ Signed out %s (data kept on this device)\n", id)
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	ids := ctx.Session.Accounts(ctx.Context())
	if len(ids) == 0 {
		ctx.Println("No accounts yet.")
		return nil
	}
	current, _ := ctx.Session.User()
	for _, id := range ids {
		marker := " "
		if id == current {
			marker = "*"
		}
		ctx.Printf("%s %s\n", marker, id)
	}
	return nil
}

type WhoAmICmd struct{}

func (c *WhoAmICmd) Run(ctx *cli.Context) error {
	id, err := ctx.Session.User()
	if err != nil {
		return err
	}
	ctx.Println(id)
	return nil
}
