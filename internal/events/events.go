// Package events publishes user lifecycle events to a Redis stream.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	UserRegistered     Type = "user.registered"
	UserRoleUpdated    Type = "user.role_updated"
	UserAvatarReplaced Type = "user.avatar_replaced"
	UserDeleted        Type = "user.deleted"
)

type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role,omitempty"`
	AvatarKey  string    `json:"avatarKey,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Values flattens the event into stream entry fields.
func (e Event) Values() map[string]any {
	values := map[string]any{
		"type":       string(e.Type),
		"userId":     e.UserID,
		"occurredAt": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.Email != "" {
		values["email"] = e.Email
	}
	if e.Role != "" {
		values["role"] = e.Role
	}
	if e.AvatarKey != "" {
		values["avatarKey"] = e.AvatarKey
	}
	return values
}

// Decode rebuilds an event from stream entry fields.
func Decode(values map[string]interface{}) (Event, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Event{}, err
	}
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, err
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	return event, nil
}
