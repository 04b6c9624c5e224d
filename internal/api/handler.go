// Package api exposes the administrative HTTP endpoints: credential
// CRUD and the event log viewer.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/common/logger"
	"satu-amo-bridge/internal/credentials"
)

// CredentialStore is the subset of the store the API needs.
type CredentialStore interface {
	Add(ctx context.Context, in credentials.AddInput) (int64, error)
	Remove(ctx context.Context, id *int64, destURL string) error
	List(ctx context.Context) ([]credentials.PublicCredential, error)
}

// EventLogReader serves the accumulated event log text.
type EventLogReader interface {
	Read() (string, error)
}

type Handler struct {
	store  CredentialStore
	events EventLogReader
	logger logger.Logger
}

func NewHandler(store CredentialStore, events EventLogReader, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		events: events,
		logger: log,
	}
}

// AddCredentials registers one tenant: provisions the destination
// custom fields and stores the credential row.
// POST /add-credentials/?api_token_satu=&api_url_amo=&api_token_amo=&pipeline_id=
func (h *Handler) AddCredentials(c *gin.Context) {
	tokenSatu := c.Query("api_token_satu")
	urlAmo := c.Query("api_url_amo")
	tokenAmo := c.Query("api_token_amo")
	pipelineRaw := c.Query("pipeline_id")

	if tokenSatu == "" || urlAmo == "" || tokenAmo == "" || pipelineRaw == "" {
		h.renderError(c, apperrors.NewValidationError(
			"api_token_satu, api_url_amo, api_token_amo and pipeline_id are required"))
		return
	}

	pipelineID, err := strconv.ParseInt(pipelineRaw, 10, 64)
	if err != nil {
		h.renderError(c, apperrors.NewValidationError("pipeline_id must be an integer"))
		return
	}

	id, err := h.store.Add(c.Request.Context(), credentials.AddInput{
		SourceAPIToken: tokenSatu,
		DestAPIURL:     urlAmo,
		DestAPIToken:   tokenAmo,
		PipelineID:     pipelineID,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "credentials added successfully",
		"id":      id,
	})
}

// DeleteCredentials removes a tenant by id or destination URL.
// DELETE /delete-credentials/?url_amo=&id=
func (h *Handler) DeleteCredentials(c *gin.Context) {
	urlAmo := c.Query("url_amo")
	idRaw := c.Query("id")

	var id *int64
	if idRaw != "" {
		parsed, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil {
			h.renderError(c, apperrors.NewValidationError("id must be an integer"))
			return
		}
		id = &parsed
	}

	if err := h.store.Remove(c.Request.Context(), id, urlAmo); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "record deleted successfully"})
}

// GetAllCredentials lists every registered tenant without secrets.
// GET /get-all-credentials/
func (h *Handler) GetAllCredentials(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetLogs returns the raw accumulated event log as plain text.
// GET /logs
func (h *Handler) GetLogs(c *gin.Context) {
	text, err := h.events.Read()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	stdErr := apperrors.AsStandard(err)
	if stdErr.Code == apperrors.ErrCodeInternal {
		h.logger.WithError(err).Error("request failed", map[string]interface{}{
			"path": c.FullPath(),
		})
	}
	c.JSON(stdErr.HTTPStatus(), gin.H{"detail": stdErr.Details, "code": stdErr.Code})
}
