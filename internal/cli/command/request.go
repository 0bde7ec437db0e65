package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/dashlink/internal/cli/connection"
	"github.com/yndnr/dashlink/internal/core/domain"
)

func headerFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "header",
		Aliases: []string{"H"},
		Usage:   `Request header as "Name: value" (repeatable)`,
	}
}

func dataFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "data",
		Aliases: []string{"d"},
		Usage:   "Request body (JSON for post and put)",
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Send a GET request",
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{headerFlag()},
		Action: func(c *cli.Context) error {
			return dispatch(c, func(ctx context.Context, client *connection.HTTPClient, path string, h http.Header) (*http.Response, error) {
				return client.Get(ctx, path, h)
			})
		},
	}
}

// PostCommand returns the post command.
func PostCommand() *cli.Command {
	return bodyCommand("post", "Send a POST request with a JSON body", (*connection.HTTPClient).Post)
}

// PutCommand returns the put command.
func PutCommand() *cli.Command {
	return bodyCommand("put", "Send a PUT request with a JSON body", (*connection.HTTPClient).Put)
}

type sendFunc func(c *connection.HTTPClient, ctx context.Context, path string, body any, h http.Header) (*http.Response, error)

func bodyCommand(name, usage string, send sendFunc) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{headerFlag(), dataFlag()},
		Action: func(c *cli.Context) error {
			var body any
			if data := c.String("data"); data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				body = json.RawMessage(data)
			}
			return dispatch(c, func(ctx context.Context, client *connection.HTTPClient, path string, h http.Header) (*http.Response, error) {
				return send(client, ctx, path, body, h)
			})
		},
	}
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"del"},
		Usage:     "Send a DELETE request",
		ArgsUsage: "PATH",
		Flags:     []cli.Flag{headerFlag()},
		Action: func(c *cli.Context) error {
			return dispatch(c, func(ctx context.Context, client *connection.HTTPClient, path string, h http.Header) (*http.Response, error) {
				return client.Delete(ctx, path, h)
			})
		},
	}
}

// RequestCommand returns the request command for arbitrary methods.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "Send a request with any method and a raw body",
		ArgsUsage: "METHOD PATH",
		Flags:     []cli.Flag{headerFlag(), dataFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("usage: request METHOD PATH")
			}
			method := c.Args().Get(0)
			var body *strings.Reader
			if data := c.String("data"); data != "" {
				body = strings.NewReader(data)
			}
			return dispatchPath(c, c.Args().Get(1), func(ctx context.Context, client *connection.HTTPClient, path string, h http.Header) (*http.Response, error) {
				if body == nil {
					return client.Request(ctx, method, path, nil, h)
				}
				return client.Request(ctx, method, path, body, h)
			})
		},
	}
}

type requestFunc func(ctx context.Context, client *connection.HTTPClient, path string, h http.Header) (*http.Response, error)

func dispatch(c *cli.Context, fn requestFunc) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: %s PATH", c.Command.Name)
	}
	return dispatchPath(c, c.Args().First(), fn)
}

func dispatchPath(c *cli.Context, path string, fn requestFunc) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	client, err := rt.Client()
	if err != nil {
		return err
	}
	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return err
	}

	resp, err := fn(c.Context, client, path, headers)
	if err != nil {
		return err
	}
	return printResponse(rt, resp)
}

func parseHeaders(values []string) (http.Header, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := http.Header{}
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", v)
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h, nil
}

func printResponse(rt *Runtime, resp *http.Response) error {
	status := resp.StatusCode
	var raw json.RawMessage
	if err := connection.DecodeJSON(resp, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		_, err := fmt.Fprintf(rt.Out, "%d %s\n", status, http.StatusText(status))
		return err
	}
	return rt.Print(raw)
}

// FetchCommand returns the fetch command, which issues GETs concurrently
// the way a dashboard page does on mount.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "GET several paths concurrently",
		ArgsUsage: "PATH...",
		Flags: []cli.Flag{
			headerFlag(),
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Maximum requests in flight (0 = all at once)",
			},
		},
		Action: fetchAction,
	}
}

type fetchResult struct {
	Path    string `json:"path" yaml:"path"`
	Status  int    `json:"status" yaml:"status"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func fetchAction(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("usage: fetch PATH...")
	}
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	client, err := rt.Client()
	if err != nil {
		return err
	}
	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return err
	}

	results := make([]fetchResult, len(paths))
	var failed int
	var mu sync.Mutex

	var g errgroup.Group
	if n := c.Int("concurrency"); n > 0 {
		g.SetLimit(n)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := fetchResult{Path: path, Outcome: "ok"}
			resp, err := client.Get(c.Context, path, headers)
			if err == nil {
				res.Status = resp.StatusCode
				err = connection.DecodeJSON(resp, nil)
			}
			if err != nil {
				res.Outcome = outcomeName(err)
				res.Error = err.Error()
				if de, ok := asDomainError(err); ok {
					res.Status = de.Status
				}
				mu.Lock()
				failed++
				mu.Unlock()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := rt.Print(results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(paths))
	}
	return nil
}

func outcomeName(err error) string {
	if kind := domain.KindOf(err); kind != domain.KindNone {
		return string(kind)
	}
	return "error"
}

func asDomainError(err error) (*domain.DomainError, bool) {
	var de *domain.DomainError
	ok := errors.As(err, &de)
	return de, ok
}
