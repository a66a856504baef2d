package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/service"
)

// EntryHandler records what a user did for a habit on a day.
// Every write here triggers the streak and score recomputation in the service.
type EntryHandler struct {
	entries *service.EntryService
	logger  *slog.Logger
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entries *service.EntryService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, logger: logger}
}

type batchRequest struct {
	Entries []model.EntryInput `json:"entries"`
}

// HandleList returns a habit's entries within an optional date range.
//
// HTTP: GET /api/habits/{habitID}/entries?from=2024-01-01&to=2024-01-31
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.entries.ListEntries(r.Context(), r.PathValue("habitID"), from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleUpsert logs the entry for a habit on a day, replacing any earlier one.
//
// HTTP: PUT /api/habits/{habitID}/entries/{date}
// REQUEST BODY: {"status": "COMPLETED", "mood": 4}
//
// PUT because the (habit, date) pair names the resource: sending the same
// body twice leaves the same state behind.
func (h *EntryHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var fields model.EntryFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry, err := h.entries.UpsertEntry(r.Context(), r.PathValue("habitID"), date, fields)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleBatch logs several entries at once, typically a whole day's check-in.
//
// HTTP: POST /api/entries/batch
// REQUEST BODY: {"entries": [{"habitId": "...", "date": "2024-01-03", "status": "COMPLETED"}]}
func (h *EntryHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.entries.LogEntries(r.Context(), req.Entries)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleUpdate edits an existing entry. The habit and date stay fixed.
//
// HTTP: PUT /api/entries/{entryID}
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var fields model.EntryFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry, err := h.entries.UpdateEntry(r.Context(), r.PathValue("entryID"), fields)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleDelete removes an entry.
//
// HTTP: DELETE /api/entries/{entryID}
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.entries.DeleteEntry(r.Context(), r.PathValue("entryID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
