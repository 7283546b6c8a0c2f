package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SnapshotFunc returns the event sent right after a client connects, so a
// new client does not wait for the next state change. ok is false when
// there is nothing to send.
type SnapshotFunc func() (event Event, ok bool)

// Handler handles SSE connections at GET /api/v1/collection/stream.
type Handler struct {
	manager  *Manager
	snapshot SnapshotFunc
	logger   *slog.Logger
}

// NewHandler creates a new SSE Handler. snapshot may be nil.
func NewHandler(manager *Manager, snapshot SnapshotFunc, logger *slog.Logger) *Handler {
	return &Handler{
		manager:  manager,
		snapshot: snapshot,
		logger:   logger,
	}
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

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := r.URL.Query().Get("session")
	client, err := h.manager.Connect(sessionID)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := h.sendEvent(w, rc, string(EventConnected), ConnectedEventData{
		ClientID:  client.ID,
		SessionID: sessionID,
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	// The snapshot is taken after Connect so no later change is missed.
	// State events queued before it are skipped by revision.
	var snapshotRev uint64
	hasSnapshot := false
	if h.snapshot != nil {
		if event, ok := h.snapshot(); ok {
			snapshotRev, hasSnapshot = stateRevision(event)
			if err := h.sendEvent(w, rc, string(event.Type), event); err != nil {
				clientLogger.Info("client disconnected during snapshot")
				return
			}
		}
	}

	ctx := r.Context()
	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				clientLogger.Info("client closed by manager")
				return
			}
			if rev, isState := stateRevision(event); isState && hasSnapshot && rev <= snapshotRev {
				continue
			}
			if err := h.sendEvent(w, rc, string(event.Type), event); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("client context canceled")
			return
		}
	}
}

// stateRevision returns the revision carried by a collection.state event.
func stateRevision(event Event) (uint64, bool) {
	data, ok := event.Data.(StateEventData)
	if !ok {
		return 0, false
	}
	return data.State.Revision, true
}

// sendEvent writes one event in SSE framing and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// SetWriteDeadline is unsupported by some ResponseWriters (e.g. httptest).
	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
