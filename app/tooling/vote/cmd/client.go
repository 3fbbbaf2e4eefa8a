package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ardanlabs/votechain/business/web/errs"
)

// apiError is a failure response from the ledger service.
type apiError struct {
	Status   int
	Response errs.Response
}

func (ae *apiError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", ae.Status, http.StatusText(ae.Status), ae.Response.Error)
	for field, err := range ae.Response.Fields {
		msg += fmt.Sprintf(" [%s: %s]", field, err)
	}
	return msg
}

// client talks to the ledger service.
type client struct {
	url  string
	http *http.Client
}

func newClient(url string) client {
	return client{
		url:  strings.TrimSuffix(url, "/"),
		http: http.DefaultClient,
	}
}

func (c client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c client) post(ctx context.Context, path string, in any, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c client) do(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling ledger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		ae := apiError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&ae.Response); err != nil {
			ae.Response.Error = resp.Status
		}
		return &ae
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
