package integrations

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Integration types. An mcp integration speaks the model-context-protocol
// command surface; an api integration is a raw HTTP endpoint.
const (
	TypeMCP = "mcp"
	TypeAPI = "api"
)

// Command is one named operation an integration exposes.
type Command struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
}

// Integration is a user-configured external service the assistant can
// invoke commands against. APIKey is stored encrypted; it is decrypted only
// at dispatch time and never returned by the API. A zero ID marks a row the
// client uploaded before the cloud assigned its identifier; it resolves by
// name but refuses execution until the sync completes.
type Integration struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"user_id"`
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Type      string            `json:"type"`
	Category  string            `json:"category,omitempty"`
	APIKey    string            `json:"-"`
	Commands  []Command         `json:"commands"`
	Headers   map[string]string `json:"headers,omitempty"`
	Active    bool              `json:"active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FindCommand looks up a command by case-insensitive exact name.
func (i *Integration) FindCommand(name string) (Command, bool) {
	for _, c := range i.Commands {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Command{}, false
}

// CommandNames returns the integration's command names in definition order.
func (i *Integration) CommandNames() []string {
	names := make([]string, len(i.Commands))
	for j, c := range i.Commands {
		names[j] = c.Name
	}
	return names
}

type CreateIntegrationRequest struct {
	Name     string            `json:"name" validate:"required,min=1,max=255"`
	URL      string            `json:"url" validate:"required,url"`
	Type     string            `json:"type" validate:"required,oneof=mcp api"`
	Category string            `json:"category" validate:"max=255"`
	APIKey   string            `json:"api_key"`
	Commands []Command         `json:"commands" validate:"dive"`
	Headers  map[string]string `json:"headers"`
	Active   *bool             `json:"active"`
}

type UpdateIntegrationRequest struct {
	Name     *string            `json:"name" validate:"omitempty,min=1,max=255"`
	URL      *string            `json:"url" validate:"omitempty,url"`
	Type     *string            `json:"type" validate:"omitempty,oneof=mcp api"`
	Category *string            `json:"category" validate:"omitempty,max=255"`
	APIKey   *string            `json:"api_key"`
	Commands *[]Command         `json:"commands" validate:"omitempty,dive"`
	Headers  *map[string]string `json:"headers"`
	Active   *bool              `json:"active"`
}

// ExecuteRequest names an integration and command the way the model (or the
// user) refers to them, plus free-form parameters passed through verbatim.
type ExecuteRequest struct {
	Integration string         `json:"integration" validate:"required,min=1"`
	Command     string         `json:"command" validate:"required,min=1"`
	Parameters  map[string]any `json:"parameters"`
}

// NotFoundError reports a failed integration lookup with every known name,
// so the caller can retry with a valid one.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("integration %q not found; known integrations: %s",
		e.Name, strings.Join(e.Known, ", "))
}

// CommandNotFoundError reports a failed command lookup within a resolved
// integration, listing the commands it does expose.
type CommandNotFoundError struct {
	Integration string
	Command     string
	Available   []string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command %q not found on integration %q; available commands: %s",
		e.Command, e.Integration, strings.Join(e.Available, ", "))
}

// NotSyncedError reports an integration that has no cloud row yet and so
// cannot be executed against.
type NotSyncedError struct {
	Integration string
}

func (e *NotSyncedError) Error() string {
	return fmt.Sprintf("integration %q is not synced to the cloud store yet", e.Integration)
}
