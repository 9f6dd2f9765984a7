// Package sse pushes re-render notifications to the page over Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCatalogChanged is sent after any book mutation is persisted.
	EventCatalogChanged EventType = "catalog.changed"
	// EventCategoriesChanged is sent after the category list is persisted.
	EventCategoriesChanged EventType = "categories.changed"
	// EventProfileChanged is sent after the admin profile or avatar changes.
	EventProfileChanged EventType = "profile.changed"
	// EventSessionChanged is sent on sign-in, sign-up and sign-out.
	EventSessionChanged EventType = "session.changed"
	// EventSettingsChanged is sent when the theme changes.
	EventSettingsChanged EventType = "settings.changed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Catalog change reasons.
const (
	ReasonSeeded          = "seeded"
	ReasonBookAdded       = "book.added"
	ReasonBookUpdated     = "book.updated"
	ReasonBookDeleted     = "book.deleted"
	ReasonFavoriteToggled = "favorite.toggled"
)

// Event represents an SSE event to be sent to clients.
// ID is assigned by the Manager when the event is dispatched and increases
// monotonically for the life of the process; heartbeats carry no ID.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	ID        uint64    `json:"id,omitempty"`
}

// KnownTypes lists the event types a page can subscribe to.
func KnownTypes() []EventType {
	return []EventType{
		EventCatalogChanged,
		EventCategoriesChanged,
		EventProfileChanged,
		EventSessionChanged,
		EventSettingsChanged,
	}
}

// ParseEventType validates a subscription name.
func ParseEventType(s string) (EventType, bool) {
	for _, t := range KnownTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// CatalogEventData is the payload of catalog.changed.
type CatalogEventData struct {
	Reason string `json:"reason"`
	BookID string `json:"bookId,omitempty"`
	Total  int    `json:"total"`
}

// CategoriesEventData is the payload of categories.changed.
type CategoriesEventData struct {
	Categories []string `json:"categories"`
}

// ProfileEventData is the payload of profile.changed. The password is never sent.
type ProfileEventData struct {
	Profile domain.AdminProfile `json:"profile"`
}

// SessionEventData is the payload of session.changed.
type SessionEventData struct {
	Session  *domain.Session `json:"session,omitempty"`
	SignedIn bool            `json:"signedIn"`
}

// SettingsEventData is the payload of settings.changed.
type SettingsEventData struct {
	Theme domain.Theme `json:"theme"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"serverTime"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Timestamp: time.Now(), Data: data}
}

// NewCatalogEvent creates a catalog.changed event.
func NewCatalogEvent(reason, bookID string, total int) Event {
	return newEvent(EventCatalogChanged, CatalogEventData{Reason: reason, BookID: bookID, Total: total})
}

// NewCategoriesEvent creates a categories.changed event.
func NewCategoriesEvent(categories []string) Event {
	return newEvent(EventCategoriesChanged, CategoriesEventData{Categories: append([]string(nil), categories...)})
}

// NewProfileEvent creates a profile.changed event.
func NewProfileEvent(p domain.AdminProfile) Event {
	return newEvent(EventProfileChanged, ProfileEventData{Profile: p.Public()})
}

// NewSessionEvent creates a session.changed event. A nil session means signed out.
func NewSessionEvent(s *domain.Session) Event {
	return newEvent(EventSessionChanged, SessionEventData{Session: s, SignedIn: s != nil})
}

// NewSettingsEvent creates a settings.changed event.
func NewSettingsEvent(theme domain.Theme) Event {
	return newEvent(EventSettingsChanged, SettingsEventData{Theme: theme})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Timestamp: now, Data: HeartbeatEventData{ServerTime: now}}
}
