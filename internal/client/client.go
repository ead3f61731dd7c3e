// Package client talks to the draft API. Its Client satisfies
// autosave.Saver and maps every response onto the draft error taxonomy.
package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/routes"
)

var clientLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	clientLogger = l
}

// ErrNotFound is returned when the draft does not exist on the server.
var ErrNotFound = errors.New("draft not found")

const maxErrorBody = 1 << 20

type Client struct {
	baseURL    string
	http       *http.Client
	headerName string

	key   ed25519.PrivateKey
	token string

	mu        sync.Mutex
	signature string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithPrivateKey makes the client answer the server's ed25519 challenge.
func WithPrivateKey(key ed25519.PrivateKey, headerName string) Option {
	return func(cl *Client) {
		cl.key = key
		if headerName != "" {
			cl.headerName = headerName
		}
	}
}

// WithBearerToken sends a fixed session token, as issued by Clerk.
func WithBearerToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		http:       http.DefaultClient,
		headerName: "Authorization",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate fetches the current challenge and signs it. It is a no-op for
// clients without a private key.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.key == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+routes.AuthChallenge, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &draft.TransientError{StatusCode: resp.StatusCode, Err: errors.New("challenge unavailable")}
	}

	var body struct {
		Challenge string `json:"challenge"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("error decoding challenge: %w", err)
	}
	challenge, err := base64.StdEncoding.DecodeString(body.Challenge)
	if err != nil {
		return fmt.Errorf("error decoding challenge: %w", err)
	}

	c.mu.Lock()
	c.signature = base64.StdEncoding.EncodeToString(ed25519.Sign(c.key, challenge))
	c.mu.Unlock()
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set(c.headerName, "Bearer "+c.token)
		return
	}
	c.mu.Lock()
	sig := c.signature
	c.mu.Unlock()
	if sig != "" {
		req.Header.Set(c.headerName, sig)
	}
}

// do sends the request, signing a fresh challenge once when the server no
// longer accepts the current signature.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, draft.NewValidationError(err)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set(config.HCType, config.CTypeJSON)
		}
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, transportError(ctx, err)
		}
		if resp.StatusCode != http.StatusUnauthorized || c.key == nil || attempt > 0 {
			return resp, nil
		}

		resp.Body.Close()
		clientLogger.Debug().Msg("Signature rejected, signing a fresh challenge")
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
}

// Save implements autosave.Saver.
func (c *Client) Save(ctx context.Context, saveReq draft.SaveRequest) (*draft.SaveResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, routes.SavePath(), saveReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var out draft.SaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, readError(ctx, resp.StatusCode, err)
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id model.DraftID) (*draft.DraftResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, routes.DraftPath(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out draft.DraftResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, readError(ctx, resp.StatusCode, err)
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id model.DraftID) error {
	resp, err := c.do(ctx, http.MethodDelete, routes.DraftPath(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) List(ctx context.Context) ([]draft.SummaryResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, routes.ListPath(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out []draft.SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, readError(ctx, resp.StatusCode, err)
	}
	return out, nil
}

// transportError classifies a failed round trip. A cancelled context means the
// save was superseded and is never reported as a failure.
func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return draft.ErrAborted
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &draft.TransientError{Err: ctx.Err()}
	default:
		return &draft.TransientError{Err: err}
	}
}

func readError(ctx context.Context, status int, err error) error {
	if ctx.Err() != nil {
		return transportError(ctx, err)
	}
	return &draft.TransientError{StatusCode: status, Err: fmt.Errorf("error decoding response: %w", err)}
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusConflict {
		var conflict draft.ConflictResponse
		if err := json.Unmarshal(body, &conflict); err != nil || !conflict.Conflict {
			return &draft.TransientError{StatusCode: resp.StatusCode, Err: errors.New("malformed conflict response")}
		}
		return &draft.ConflictError{
			ServerVersion: conflict.ServerVersion,
			ServerContent: conflict.ServerContent,
		}
	}

	var errResp draft.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		errResp.Error = strings.TrimSpace(string(body))
		if errResp.Error == "" {
			errResp.Error = http.StatusText(resp.StatusCode)
		}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusRequestEntityTooLarge:
		return draft.NewValidationError(errors.New(errResp.Error), errResp.Fields...)
	case resp.StatusCode == http.StatusUnauthorized:
		return &draft.AuthorizationError{Unauthenticated: true, Reason: errResp.Error}
	case resp.StatusCode == http.StatusForbidden:
		return &draft.AuthorizationError{Reason: errResp.Error}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", errResp.Error, ErrNotFound)
	default:
		return &draft.TransientError{StatusCode: resp.StatusCode, Err: errors.New(errResp.Error)}
	}
}
