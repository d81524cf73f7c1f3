package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"

	"github.com/aria-assistant/aria/internal/supaclient"
)

// Repository persists integrations per user.
type Repository interface {
	List(ctx context.Context, userID string) ([]Integration, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Integration, error)
	Create(ctx context.Context, integ *Integration) error
	Update(ctx context.Context, integ *Integration) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type integrationRow struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	APIKey    string          `json:"api_key"`
	Commands  json.RawMessage `json:"commands"`
	Headers   json.RawMessage `json:"headers"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r integrationRow) toIntegration() (Integration, error) {
	// An empty ID marks a row uploaded by a client before the cloud
	// assigned its identifier; it resolves but cannot execute.
	var id uuid.UUID
	if r.ID != "" {
		var err error
		id, err = uuid.Parse(r.ID)
		if err != nil {
			return Integration{}, fmt.Errorf("parsing integration id: %w", err)
		}
	}
	integ := Integration{
		ID:        id,
		UserID:    r.UserID,
		Name:      r.Name,
		URL:       r.URL,
		Type:      r.Type,
		Category:  r.Category,
		APIKey:    r.APIKey,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Commands) > 0 {
		if err := json.Unmarshal(r.Commands, &integ.Commands); err != nil {
			return Integration{}, fmt.Errorf("parsing integration commands: %w", err)
		}
	}
	if len(r.Headers) > 0 {
		if err := json.Unmarshal(r.Headers, &integ.Headers); err != nil {
			return Integration{}, fmt.Errorf("parsing integration headers: %w", err)
		}
	}
	return integ, nil
}

func rowFromIntegration(integ *Integration) (integrationRow, error) {
	commands, err := json.Marshal(integ.Commands)
	if err != nil {
		return integrationRow{}, fmt.Errorf("encoding integration commands: %w", err)
	}
	headers, err := json.Marshal(integ.Headers)
	if err != nil {
		return integrationRow{}, fmt.Errorf("encoding integration headers: %w", err)
	}
	return integrationRow{
		ID:        integ.ID.String(),
		UserID:    integ.UserID,
		Name:      integ.Name,
		URL:       integ.URL,
		Type:      integ.Type,
		Category:  integ.Category,
		APIKey:    integ.APIKey,
		Commands:  commands,
		Headers:   headers,
		Active:    integ.Active,
		CreatedAt: integ.CreatedAt,
		UpdatedAt: integ.UpdatedAt,
	}, nil
}

const integrationsTable = "integrations"

type supabaseRepository struct {
	client *supaclient.Client
}

// NewSupabaseRepository returns a Repository backed by the hosted
// integrations table.
func NewSupabaseRepository(client *supaclient.Client) Repository {
	return &supabaseRepository{client: client}
}

func (r *supabaseRepository) List(ctx context.Context, userID string) ([]Integration, error) {
	if !r.client.Enabled() {
		return nil, supaclient.ErrDisabled
	}

	var rows []integrationRow
	_, err := r.client.DB().From(integrationsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("listing integrations: %w", err)
	}

	integs := make([]Integration, 0, len(rows))
	for _, row := range rows {
		integ, err := row.toIntegration()
		if err != nil {
			return nil, err
		}
		integs = append(integs, integ)
	}
	return integs, nil
}

func (r *supabaseRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*Integration, error) {
	if !r.client.Enabled() {
		return nil, supaclient.ErrDisabled
	}

	var rows []integrationRow
	_, err := r.client.DB().From(integrationsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("fetching integration: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	integ, err := rows[0].toIntegration()
	if err != nil {
		return nil, err
	}
	return &integ, nil
}

func (r *supabaseRepository) Create(ctx context.Context, integ *Integration) error {
	if !r.client.Enabled() {
		return supaclient.ErrDisabled
	}

	row, err := rowFromIntegration(integ)
	if err != nil {
		return err
	}
	_, _, err = r.client.DB().From(integrationsTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("creating integration: %w", err)
	}
	return nil
}

func (r *supabaseRepository) Update(ctx context.Context, integ *Integration) error {
	if !r.client.Enabled() {
		return supaclient.ErrDisabled
	}

	row, err := rowFromIntegration(integ)
	if err != nil {
		return err
	}
	_, _, err = r.client.DB().From(integrationsTable).
		Update(row, "", "").
		Eq("user_id", integ.UserID).
		Eq("id", integ.ID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("updating integration: %w", err)
	}
	return nil
}

func (r *supabaseRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if !r.client.Enabled() {
		return supaclient.ErrDisabled
	}

	_, _, err := r.client.DB().From(integrationsTable).
		Delete("", "").
		Eq("user_id", userID).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("deleting integration: %w", err)
	}
	return nil
}
