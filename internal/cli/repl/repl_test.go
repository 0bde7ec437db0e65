package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) exec(_ context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func newTestREPL(input string, rec *recorder) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(rec.exec,
		WithIO(strings.NewReader(input), out),
		WithCompleter(NewCompleter([]string{"get", "goto", "session status", "help"})),
		WithHistory(NewHistory("")),
	)
	return r, out
}

func TestREPL_Run_Exit(t *testing.T) {
	for _, input := range []string{"exit\n", "quit\n", "", "get /a"} {
		rec := &recorder{}
		r, _ := newTestREPL(input, rec)
		if err := r.Run(context.Background()); err != nil {
			t.Errorf("Run(%q) error = %v", input, err)
		}
	}
}

func TestREPL_Run_ExecutesSplitArgs(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("get /api/traders -H 'X-Trace: a b'\n  session status  \nexit\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"get", "/api/traders", "-H", "X-Trace: a b"},
		{"session", "status"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
	if r.history.Get(1) != "session status" {
		t.Errorf("history not trimmed: %q", r.history.Get(1))
	}
}

func TestREPL_Run_ErrorsDoNotStop(t *testing.T) {
	rec := &recorder{err: errors.New("session expired")}
	r, out := newTestREPL("get /a\nget /b\nexit\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("executed %d commands, want 2", len(rec.calls))
	}
	if strings.Count(out.String(), "Error: session expired") != 2 {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_UnknownCommand(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("gt /x\nexit\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("unknown command should not execute, got %q", rec.calls)
	}
	if !strings.Contains(out.String(), `unknown command "gt", did you mean: get, goto`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_PromptAndHistory(t *testing.T) {
	location := "/"
	out := &bytes.Buffer{}
	r := New(func(ctx context.Context, args []string) error {
		location = args[1]
		return nil
	},
		WithIO(strings.NewReader("goto /nofx/traders\nhistory\nexit\n"), out),
		WithCompleter(NewCompleter([]string{"goto"})),
		WithPrompt(func() string { return "dashlink:" + location + "> " }),
	)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "dashlink:/nofx/traders> ") {
		t.Errorf("prompt should follow location, output = %q", out.String())
	}
	if !strings.Contains(out.String(), "   1  goto /nofx/traders") {
		t.Errorf("history not printed, output = %q", out.String())
	}
}

func TestREPL_Run_CancelledContext(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("get /a\n", rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Error("cancelled REPL should not execute")
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"get /a", []string{"get", "/a"}, false},
		{"  get\t/a  ", []string{"get", "/a"}, false},
		{`post /x -d '{"a": 1}'`, []string{"post", "/x", "-d", `{"a": 1}`}, false},
		{`post /x -d "{\"a\": 1}"`, []string{"post", "/x", "-d", `{"a": 1}`}, false},
		{`goto /a\ b`, []string{"goto", "/a b"}, false},
		{`get ''`, []string{"get", ""}, false},
		{`get 'open`, nil, true},
		{`get \`, nil, true},
		{"   ", nil, true},
	}

	for _, tt := range tests {
		got, err := SplitArgs(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitArgs(%q) error = %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
