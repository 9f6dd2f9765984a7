package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// retryMillis is the reconnect delay suggested to the browser.
	retryMillis  = 3000
	writeTimeout = 60 * time.Second
)

// Handler streams events at GET /api/v1/events.
//
// Query parameter types takes a comma-separated list of event types to
// receive (default: all). On connect, the latest event of each subscribed type
// is replayed so the page can render without a separate fetch; a reconnecting
// browser that sends Last-Event-ID only gets what changed since.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	types, err := parseTypes(r.URL.Query().Get("types"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	after := lastEventID(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming unsupported", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, err := h.manager.Subscribe(types...)
	if err != nil {
		h.logger.Error("failed to register SSE client", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Unsubscribe(sub.ID)

	log := h.logger.With("client_id", sub.ID)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryMillis); err != nil {
		return
	}
	if err := h.write(w, rc, 0, "connected", map[string]any{
		"clientId": sub.ID,
		"lastId":   h.manager.LastID(),
	}); err != nil {
		log.Warn("failed to send connected event", "error", err)
		return
	}

	// Events dispatched between Subscribe and Snapshot arrive twice; sent
	// tracks the highest ID written so the channel copy is skipped.
	sent := after
	for _, evt := range h.manager.Snapshot(sub, after) {
		if err := h.write(w, rc, evt.ID, string(evt.Type), evt); err != nil {
			return
		}
		sent = evt.ID
	}
	if sent > after {
		log.Debug("replayed latest state", "after", after, "up_to", sent)
	}

	ctx := r.Context()
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if evt.ID != 0 && evt.ID <= sent {
				continue
			}
			if err := h.write(w, rc, evt.ID, string(evt.Type), evt); err != nil {
				log.Debug("client went away mid-write")
				return
			}
			if evt.ID != 0 {
				sent = evt.ID
			}
		case <-sub.Done():
			log.Info("client closed by manager")
			return
		case <-ctx.Done():
			return
		}
	}
}

// write emits one SSE frame. An id of zero omits the id field so heartbeats
// do not move the browser's Last-Event-ID.
func (h *Handler) write(w http.ResponseWriter, rc *http.ResponseController, eventID uint64, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}

	var b strings.Builder
	if eventID != 0 {
		fmt.Fprintf(&b, "id: %d\n", eventID)
	}
	fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", name, payload)

	if _, err := w.Write([]byte(b.String())); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("write deadline unsupported", "error", err)
	}
	return nil
}

func parseTypes(raw string) ([]EventType, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var types []EventType
	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := ParseEventType(name)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q", name)
		}
		types = append(types, t)
	}
	return types, nil
}

// lastEventID reads the resume point from the Last-Event-ID header, or the
// lastEventId query parameter for clients that cannot set headers.
func lastEventID(r *http.Request) uint64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("lastEventId")
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
