package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	tf, ok := NewFormatter("unknown", true).(*TableFormatter)
	if !ok {
		t.Fatal("unknown format should default to table")
	}
	if !tf.Wide {
		t.Error("expected Wide=true")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type sessionView struct {
	User     string `json:"user" yaml:"user"`
	Location string `json:"location" yaml:"location"`
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sessionView{User: "alice", Location: "/dashboard?x=1&y=2"}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"user": "alice"`) {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "x=1&y=2") {
		t.Errorf("HTML escaping should be off, got %q", out)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, sessionView{User: "alice", Location: "/"}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "user: alice\nlocation: /\n" {
		t.Errorf("Format() = %q", got)
	}
}

func TestYAMLFormatter_RawJSON(t *testing.T) {
	var buf bytes.Buffer
	raw := json.RawMessage(`{"traders":[{"id":1}]}`)
	if err := (&YAMLFormatter{}).Format(&buf, raw); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "traders:") || !strings.Contains(out, "- id: 1") {
		t.Errorf("Format() = %q", out)
	}
}
