package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/steveyegge/ghsync/internal/engine"
	"github.com/steveyegge/ghsync/internal/issue"
)

// Handler bridges reconciler and daemon events to dashboard messages.
// It implements engine.Observer and accumulates cumulative statistics
// across passes.
type Handler struct {
	server *Server
	logger *log.Logger

	stats *StatsData
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
		stats: &StatsData{
			ByState: make(map[string]int),
		},
	}
}

// OnReconciled handles a successfully applied change.
func (h *Handler) OnReconciled(ch engine.Change) {
	var action string
	var rec issue.Record

	switch ch.Kind {
	case engine.RemoteUpdated, engine.BothUpdated:
		action = "pulled"
		rec = ch.Remote.Record
		h.stats.Pulled++
	case engine.LocalUpdated:
		action = "pushed"
		rec = ch.Local.Record
		h.stats.Pushed++
	case engine.LocalCreated:
		action = "created"
		rec = ch.Local.Record
		h.stats.Created++
	default:
		// Bookkeeping refreshes are not worth a broadcast.
		return
	}

	h.logger.Printf("Issue %s: #%d (%s)", action, ch.Number, rec.Title)

	data := IssueUpdateData{
		Number: ch.Number,
		Action: action,
		Title:  rec.Title,
		State:  string(rec.State),
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal issue data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeIssueUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// OnConflict handles a both-sides conflict resolved in favor of the remote.
func (h *Handler) OnConflict(number int, discarded issue.Record) {
	h.logger.Printf("Conflict on issue #%d: remote wins", number)

	h.stats.Conflicts++

	data := ConflictData{
		Number:         number,
		Winner:         "remote",
		DiscardedTitle: discarded.Title,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal conflict data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeConflict,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// OnPassComplete handles reconciliation pass completion.
func (h *Handler) OnPassComplete(changes, errors, tracked int, duration time.Duration) {
	h.logger.Printf("Pass complete: %d changes, %d errors in %v", changes, errors, duration)

	h.stats.Tracked = tracked

	data := PassCompleteData{
		Changes:  changes,
		Errors:   errors,
		Tracked:  tracked,
		Duration: duration,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal pass data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypePassComplete,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	h.broadcastStats()
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	dataJSON, err := json.Marshal(h.stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// UpdateStats refreshes the tracked-issue breakdown from the snapshot
// store. Useful at startup and after full passes.
func (h *Handler) UpdateStats(records []issue.Record) {
	h.stats.Tracked = len(records)
	h.stats.ByState = make(map[string]int)

	for _, rec := range records {
		h.stats.ByState[string(rec.State)]++
	}

	h.broadcastStats()
}

// GetStats returns the current statistics
func (h *Handler) GetStats() StatsData {
	return *h.stats
}
