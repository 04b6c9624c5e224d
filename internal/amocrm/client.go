// Package amocrm implements the destination CRM REST client: one-time
// lead custom-field provisioning and bulk complex-lead creation.
package amocrm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/common/httpclient"
)

const systemName = "amocrm"

// leadFieldDefinitions is the fixed set of fields provisioned per tenant,
// in the order their ids are stored (address, delivery type, payment, product).
var leadFieldDefinitions = []fieldDefinition{
	{Name: "Адрес доставки", Type: "text", IsAPIOnly: true},
	{Name: "Тип доставки", Type: "text", IsAPIOnly: true},
	{Name: "Тип оплаты", Type: "text", IsAPIOnly: true},
	{Name: "Продукт", Type: "textarea", IsAPIOnly: true},
}

type Client struct {
	httpClient *httpclient.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: httpclient.NewClient(timeout),
	}
}

// CreateLeadCustomFields provisions the four lead custom fields on the
// account and returns their ids in definition order.
func (c *Client) CreateLeadCustomFields(ctx context.Context, acct Account) (FieldIDs, error) {
	body, err := c.post(ctx, acct, "/api/v4/leads/custom_fields", leadFieldDefinitions)
	if err != nil {
		return FieldIDs{}, err
	}

	var parsed customFieldsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return FieldIDs{}, apperrors.NewInternalError(fmt.Errorf("failed to unmarshal custom fields response: %w", err))
	}

	fields := parsed.Embedded.CustomFields
	if len(fields) < len(leadFieldDefinitions) {
		return FieldIDs{}, apperrors.NewInternalError(
			fmt.Errorf("expected %d custom fields in response, got %d", len(leadFieldDefinitions), len(fields)))
	}

	return FieldIDs{
		Address:      fields[0].ID,
		DeliveryType: fields[1].ID,
		Payment:      fields[2].ID,
		Product:      fields[3].ID,
	}, nil
}

// CreateComplexLeads submits one batch of leads with embedded contacts.
// The raw response is returned for logging.
func (c *Client) CreateComplexLeads(ctx context.Context, acct Account, leads []LeadPayload) (json.RawMessage, error) {
	body, err := c.post(ctx, acct, "/api/v4/leads/complex", leads)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) post(ctx context.Context, acct Account, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to marshal request: %w", err))
	}

	url := acct.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+acct.Token)

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

	return body, nil
}
