// Package satu implements the source order-management API client.
package satu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xeipuuv/gojsonschema"

	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/common/httpclient"
)

const systemName = "satu"

type Client struct {
	httpClient *httpclient.Client
	schema     *gojsonschema.Schema
}

func NewClient(timeout time.Duration) *Client {
	// The schema literal is fixed at compile time; a failure here would
	// be caught by any test touching the client.
	schema, _ := gojsonschema.NewSchema(gojsonschema.NewStringLoader(ordersSchema))
	return &Client{
		httpClient: httpclient.NewClient(timeout),
		schema:     schema,
	}
}

// ListPendingOrders fetches orders with status "pending" created after
// the given checkpoint. The since value is passed through verbatim in
// the tenant's configured timestamp format.
func (c *Client) ListPendingOrders(ctx context.Context, apiURL, token, since string) ([]Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to create request: %w", err))
	}

	query := url.Values{}
	query.Set("date_from", since)
	query.Set("status", "pending")
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnreachableError(systemName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.NewUpstreamError(systemName, resp.StatusCode, string(body))
	}

	if err := c.validatePayload(body); err != nil {
		return nil, err
	}

	var parsed ordersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewUpstreamError(systemName, http.StatusBadGateway,
			fmt.Sprintf("failed to unmarshal orders response: %v", err))
	}

	return parsed.Orders, nil
}

func (c *Client) validatePayload(body []byte) error {
	if c.schema == nil {
		return nil
	}
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.NewUpstreamError(systemName, http.StatusBadGateway,
			fmt.Sprintf("orders response is not valid JSON: %v", err))
	}
	if !result.Valid() {
		detail := "orders response failed schema validation"
		if errs := result.Errors(); len(errs) > 0 {
			detail = fmt.Sprintf("%s: %s", detail, errs[0].String())
		}
		return apperrors.NewUpstreamError(systemName, http.StatusBadGateway, detail)
	}
	return nil
}
