// Package proxyclient talks to the upstream multiplexing JDWP proxy's
// auxiliary HTTP API (spec.md section 5): breakpoint listing/deletion and
// current-thread lookup. The proxy is the authoritative store for
// breakpoints; this package never caches its responses.
//
// Grounded on teranos-QNTX/internal/httpclient/safer_client.go's
// http.Client wrapper shape (fixed timeout, typed-error-wrapped Do).
// Adapted: the teacher's SaferClient adds SSRF protection (scheme
// allowlisting, private-IP blocking, redirect caps) for requests whose
// target URL may be attacker-influenced; this client only ever talks to a
// fixed localhost proxy port under the trusted-network assumption spec.md
// section 1 states explicitly, so that hardening layer is dropped and
// only the timeout + typed-error-wrap half of the shape is kept.
package proxyclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

const defaultTimeout = 10 * time.Second

// Breakpoint is one entry of GET /breakpoints (spec.md section 5).
type Breakpoint struct {
	RequestID  int    `json:"requestId"`
	ClassID    int64  `json:"classId"`
	MethodID   int64  `json:"methodId"`
	CodeIndex  int64  `json:"codeIndex"`
	ClassName  string `json:"className"`
	MethodName string `json:"methodName"`
	LineNumber int    `json:"lineNumber"`
}

type breakpointsResponse struct {
	Breakpoints []Breakpoint `json:"breakpoints"`
}

// CurrentThread is the body of GET /current-thread.
type CurrentThread struct {
	ThreadID   int64  `json:"threadId"`
	ThreadName string `json:"threadName"`
	Suspended  bool   `json:"suspended"`
	Frames     int    `json:"frames"`
}

// Client is an HTTP client bound to one proxy instance's auxiliary port
// (proxy-port + 1, spec.md section 5).
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the proxy's auxiliary HTTP API at host:port.
func New(host string, port int) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Breakpoints fetches the proxy's full breakpoint table.
func (c *Client) Breakpoints(ctx context.Context) ([]Breakpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/breakpoints", nil)
	if err != nil {
		return nil, xerrors.Wrap(err, "build breakpoints request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(err, "proxy unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Newf("proxy returned %d for GET /breakpoints", resp.StatusCode)
	}
	var body breakpointsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, xerrors.Wrap(err, "decode breakpoints response")
	}
	return body.Breakpoints, nil
}

// DeleteBreakpoint asks the proxy to drop one breakpoint by request id.
// Deleting an unknown id reports BreakpointNotFound rather than an error
// the caller must distinguish from a transport failure.
func (c *Client) DeleteBreakpoint(ctx context.Context, requestID int) error {
	url := fmt.Sprintf("%s/breakpoints/%d", c.baseURL, requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return xerrors.Wrap(err, "build delete-breakpoint request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return xerrors.Wrap(err, "proxy unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return xerrors.BreakpointNotFound
	default:
		return xerrors.Newf("proxy returned %d for DELETE /breakpoints/%d", resp.StatusCode, requestID)
	}
}

// CurrentThread fetches the thread most recently paused at a breakpoint,
// or nil if the proxy has not captured one (spec.md section 4.10's
// get-current-thread: "returns null on 404").
func (c *Client) CurrentThread(ctx context.Context) (*CurrentThread, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/current-thread", nil)
	if err != nil {
		return nil, xerrors.Wrap(err, "build current-thread request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(err, "proxy unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Newf("proxy returned %d for GET /current-thread", resp.StatusCode)
	}
	var body CurrentThread
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, xerrors.Wrap(err, "decode current-thread response")
	}
	return &body, nil
}
