// Package credentials persists per-tenant integration config in
// Postgres and provisions destination custom fields at registration.
package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"satu-amo-bridge/internal/amocrm"
	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/common/logger"
)

// DefaultSourceAPIURL is the orders-list endpoint stored for every
// registration.
const DefaultSourceAPIURL = "https://my.satu.kz/api/v1/orders/list"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS api_credentials (
	id               SERIAL PRIMARY KEY,
	api_url_satu     TEXT NOT NULL,
	api_token_satu   TEXT NOT NULL,
	api_url_amo      TEXT NOT NULL,
	api_token_amo    TEXT NOT NULL,
	pipeline_id      BIGINT NOT NULL,
	address_id       BIGINT NOT NULL,
	delivery_type_id BIGINT NOT NULL,
	payment_id       BIGINT NOT NULL,
	product_id       BIGINT NOT NULL
)`

// FieldProvisioner creates the lead custom fields on the destination
// account and reports their ids.
type FieldProvisioner interface {
	CreateLeadCustomFields(ctx context.Context, acct amocrm.Account) (amocrm.FieldIDs, error)
}

type Store struct {
	db          *sql.DB
	provisioner FieldProvisioner
	logger      logger.Logger
}

func NewStore(db *sql.DB, provisioner FieldProvisioner, log logger.Logger) *Store {
	return &Store{
		db:          db,
		provisioner: provisioner,
		logger:      log,
	}
}

// EnsureSchema creates the credentials table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create api_credentials table: %w", err)
	}
	return nil
}

// Add provisions the destination custom fields, then persists the
// credential row with the returned field ids.
func (s *Store) Add(ctx context.Context, in AddInput) (int64, error) {
	destURL := strings.TrimSuffix(in.DestAPIURL, "/")

	fieldIDs, err := s.provisioner.CreateLeadCustomFields(ctx, amocrm.Account{
		BaseURL: destURL,
		Token:   in.DestAPIToken,
	})
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO api_credentials
		 (api_url_satu, api_token_satu, api_url_amo, api_token_amo, pipeline_id,
		  address_id, delivery_type_id, payment_id, product_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		DefaultSourceAPIURL, in.SourceAPIToken, destURL, in.DestAPIToken, in.PipelineID,
		fieldIDs.Address, fieldIDs.DeliveryType, fieldIDs.Payment, fieldIDs.Product,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewInternalError(fmt.Errorf("failed to insert credentials: %w", err))
	}

	s.logger.Info("credentials registered", map[string]interface{}{
		"id":         id,
		"apiUrlAmo":  destURL,
		"pipelineId": in.PipelineID,
	})
	return id, nil
}

// Remove deletes by destination URL when given, otherwise by id.
func (s *Store) Remove(ctx context.Context, id *int64, destURL string) error {
	var (
		res sql.Result
		err error
	)
	switch {
	case destURL != "":
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM api_credentials WHERE api_url_amo = $1`, destURL)
	case id != nil:
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM api_credentials WHERE id = $1`, *id)
	default:
		return apperrors.NewValidationError("either the destination URL or an id must be provided")
	}
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("failed to delete credentials: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("failed to read delete result: %w", err))
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("no matching credentials record")
	}
	return nil
}

// List returns the public projection of every row.
func (s *Store) List(ctx context.Context) ([]PublicCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, api_url_satu, api_url_amo, pipeline_id FROM api_credentials ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to list credentials: %w", err))
	}
	defer rows.Close()

	out := []PublicCredential{}
	for rows.Next() {
		var c PublicCredential
		if err := rows.Scan(&c.ID, &c.SourceAPIURL, &c.DestAPIURL, &c.PipelineID); err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("failed to scan credentials row: %w", err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to iterate credentials rows: %w", err))
	}
	return out, nil
}

// ListWithSecrets returns full rows for the sync task.
func (s *Store) ListWithSecrets(ctx context.Context) ([]Credential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, api_url_satu, api_token_satu, api_url_amo, api_token_amo, pipeline_id,
		        address_id, delivery_type_id, payment_id, product_id
		 FROM api_credentials ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to list credentials: %w", err))
	}
	defer rows.Close()

	out := []Credential{}
	for rows.Next() {
		var c Credential
		if err := rows.Scan(
			&c.ID, &c.SourceAPIURL, &c.SourceAPIToken, &c.DestAPIURL, &c.DestAPIToken, &c.PipelineID,
			&c.FieldIDs.Address, &c.FieldIDs.DeliveryType, &c.FieldIDs.Payment, &c.FieldIDs.Product,
		); err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("failed to scan credentials row: %w", err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to iterate credentials rows: %w", err))
	}
	return out, nil
}

// Get returns one full row, or nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id int64) (*Credential, error) {
	var c Credential
	err := s.db.QueryRowContext(ctx,
		`SELECT id, api_url_satu, api_token_satu, api_url_amo, api_token_amo, pipeline_id,
		        address_id, delivery_type_id, payment_id, product_id
		 FROM api_credentials WHERE id = $1`, id).
		Scan(
			&c.ID, &c.SourceAPIURL, &c.SourceAPIToken, &c.DestAPIURL, &c.DestAPIToken, &c.PipelineID,
			&c.FieldIDs.Address, &c.FieldIDs.DeliveryType, &c.FieldIDs.Payment, &c.FieldIDs.Product,
		)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to get credentials: %w", err))
	}
	return &c, nil
}
