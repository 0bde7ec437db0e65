package connection

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/dashlink/internal/core/domain"
)

// maxDetailBytes bounds how much of a failed response body is read for the
// server-supplied message.
const maxDetailBytes = 4 << 10

// Expirer is notified of every 401. The expiry coordinator implements it.
type Expirer interface {
	HandleUnauthorized(ctx context.Context) bool
}

// Classifier turns a response into either a pass-through response or a
// classified *domain.DomainError.
type Classifier struct {
	expiry Expirer
}

// NewClassifier creates a classifier reporting 401s to expiry.
func NewClassifier(expiry Expirer) *Classifier {
	return &Classifier{expiry: expiry}
}

// Classify inspects resp. On a classified failure the body is drained (up to
// a bound), closed, and a nil response is returned with the error.
//
//	401   -> expiry notified, ErrSessionExpired (also on duplicates)
//	403   -> ErrForbidden
//	404   -> ErrNotFound
//	>=500 -> ErrServerError
//	other -> resp unchanged
func (c *Classifier) Classify(ctx context.Context, resp *http.Response) (*http.Response, error) {
	var base *domain.DomainError
	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized:
		base = domain.ErrSessionExpired
	case status == http.StatusForbidden:
		base = domain.ErrForbidden
	case status == http.StatusNotFound:
		base = domain.ErrNotFound
	case status >= http.StatusInternalServerError:
		base = domain.ErrServerError
	default:
		return resp, nil
	}

	detail := readDetail(resp.Body)
	resp.Body.Close()

	if base == domain.ErrSessionExpired && c.expiry != nil {
		c.expiry.HandleUnauthorized(ctx)
	}

	err := base.WithStatus(resp.StatusCode)
	if detail != "" {
		err = err.WithDetails(detail)
	}
	return nil, err
}

// readDetail extracts a message from a JSON error body ("error" or
// "message"), falling back to the first line of a text body.
func readDetail(body io.Reader) string {
	if body == nil {
		return ""
	}
	raw, _ := io.ReadAll(io.LimitReader(body, maxDetailBytes))
	// Let the transport reuse the connection.
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDetailBytes))

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
		return ""
	}

	if strings.HasPrefix(text, "<") {
		return ""
	}
	line, _, _ := strings.Cut(text, "\n")
	const maxLine = 200
	if len(line) > maxLine {
		cut := maxLine
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut] + "..."
	}
	return line
}
