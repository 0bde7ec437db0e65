package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and return to the page the session expired on",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Username or email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (read from stdin when omitted)",
				EnvVars: []string{"DASHLINK_PASSWORD"},
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	password := c.String("password")
	if password == "" {
		fmt.Fprint(rt.Err, "Password: ")
		line, err := bufio.NewReader(rt.In).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	dest, err := rt.Auth.Login(c.Context, c.String("username"), password)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Out, "Logged in, now at %s\n", dest)
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(c *cli.Context) error {
			rt, err := GetRuntime(c)
			if err != nil {
				return err
			}
			if err := rt.Auth.Logout(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(rt.Out, "Logged out")
			return nil
		},
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged-in user and token claims",
		Action: func(c *cli.Context) error {
			rt, err := GetRuntime(c)
			if err != nil {
				return err
			}
			id, err := rt.Auth.Whoami(c.Context)
			if err != nil {
				return err
			}
			return rt.Print(whoamiView{
				ID:        id.User.ID,
				Email:     id.User.Email,
				Name:      id.User.Name,
				Subject:   id.Subject,
				ExpiresAt: id.ExpiresAt,
				Expired:   id.Expired,
			})
		},
	}
}
