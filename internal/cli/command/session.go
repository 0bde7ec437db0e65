package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dashlink/internal/storage"
)

type whoamiView struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired   bool      `json:"expired" yaml:"expired"`
}

type sessionView struct {
	State           string `json:"state" yaml:"state"`
	Episode         uint64 `json:"episode" yaml:"episode"`
	RedirectPending bool   `json:"redirect_pending" yaml:"redirect_pending"`
	Location        string `json:"location" yaml:"location"`
	LoggedIn        bool   `json:"logged_in" yaml:"logged_in"`
	ReturnPath      string `json:"return_path,omitempty" yaml:"return_path,omitempty"`
}

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect and control session-expiry handling",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show expiry state, location and stored session keys",
				Action: sessionStatus,
			},
			{
				Name:   "reset",
				Usage:  "Return the expiry coordinator to idle",
				Action: sessionReset,
			},
			{
				Name:   "cancel-redirect",
				Usage:  "Cancel a scheduled redirect to the login page",
				Action: sessionCancelRedirect,
			},
		},
	}
}

func sessionStatus(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	cfg := rt.Config.Storage
	_, loggedIn, err := storage.Lookup(c.Context, rt.Durable, cfg.TokenKey)
	if err != nil {
		return err
	}
	returnPath, _, err := storage.Lookup(c.Context, rt.Session, cfg.ReturnKey)
	if err != nil {
		return err
	}

	return rt.Print(sessionView{
		State:           rt.Expiry.State().String(),
		Episode:         rt.Expiry.Episode(),
		RedirectPending: rt.Expiry.Pending(),
		Location:        rt.Browser.Current().String(),
		LoggedIn:        loggedIn,
		ReturnPath:      returnPath,
	})
}

func sessionReset(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	rt.Expiry.Reset()
	fmt.Fprintln(rt.Out, "Expiry state reset")
	return nil
}

func sessionCancelRedirect(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	if rt.Expiry.CancelRedirect() {
		fmt.Fprintln(rt.Out, "Redirect cancelled")
	} else {
		fmt.Fprintln(rt.Out, "No redirect pending")
	}
	return nil
}
