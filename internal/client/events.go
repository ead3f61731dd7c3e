package client

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/routes"
)

// DraftEvent is one change notification of a draft.
type DraftEvent struct {
	Version model.Version
	Deleted bool
}

// Watch follows the event stream of a draft and calls fn for every event
// until ctx ends or the server closes the stream. The first event carries the
// version current at subscription time.
func (c *Client) Watch(ctx context.Context, id model.DraftID, fn func(DraftEvent)) error {
	resp, err := c.do(ctx, http.MethodGet, routes.EventsPath(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := readEvents(resp.Body, fn); err != nil {
		if ctx.Err() != nil {
			return transportError(ctx, err)
		}
		return err
	}
	return nil
}

// readEvents parses "event:"/"data:" frames separated by blank lines.
func readEvents(r io.Reader, fn func(DraftEvent)) error {
	var name, data string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if e, ok := parseEvent(name, data); ok {
				fn(e)
			}
			name, data = "", ""
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	return scanner.Err()
}

func parseEvent(name, data string) (DraftEvent, bool) {
	switch name {
	case "version":
		v, err := model.ParseVersion(data)
		if err != nil {
			clientLogger.Warn().Err(err).Msg("Ignoring malformed version event")
			return DraftEvent{}, false
		}
		return DraftEvent{Version: v}, true
	case "deleted":
		return DraftEvent{Deleted: true}, true
	default:
		return DraftEvent{}, false
	}
}
