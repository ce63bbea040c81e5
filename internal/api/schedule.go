package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/shabbat-clock/internal/schedule"
)

// Relay states on the wire.
const (
	stateOn  = "on"
	stateOff = "off"
)

// EntryDTO is the wire form of a schedule entry. Day follows time.Weekday
// (0 = Sunday).
type EntryDTO struct {
	Day    int    `json:"day"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	State  string `json:"state"`
}

func entryToDTO(e schedule.Entry) EntryDTO {
	state := stateOff
	if e.On {
		state = stateOn
	}
	return EntryDTO{Day: int(e.Weekday), Hour: e.Hour, Minute: e.Minute, State: state}
}

// toEntry validates the DTO and converts it.
func (d EntryDTO) toEntry() (schedule.Entry, error) {
	var on bool
	switch d.State {
	case stateOn:
		on = true
	case stateOff:
	default:
		return schedule.Entry{}, fmt.Errorf("%w: state must be %q or %q", schedule.ErrInvalidEntry, stateOn, stateOff)
	}
	e := schedule.Entry{
		Moment: schedule.Moment{Weekday: time.Weekday(d.Day), Hour: d.Hour, Minute: d.Minute},
		On:     on,
	}
	if err := e.Validate(); err != nil {
		return schedule.Entry{}, err
	}
	return e, nil
}

// mutationResponse reports a schedule change. Persisted is false when the
// change took effect in memory but could not be saved.
type mutationResponse struct {
	Outcome   string `json:"outcome"`
	Entries   int    `json:"entries"`
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

// handleListSchedule returns the ordered schedule.
func (s *Server) handleListSchedule(w http.ResponseWriter, _ *http.Request) {
	entries := s.engine.ScheduleList()
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToDTO(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  out,
		"count":    len(out),
		"capacity": s.engine.Status().Capacity,
	})
}

// handleUpsertSchedule adds or updates one entry. Entries cannot be added
// until the clock holds a valid time.
func (s *Server) handleUpsertSchedule(w http.ResponseWriter, r *http.Request) {
	var dto EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	entry, err := dto.toEntry()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !s.engine.Now().Valid {
		writeError(w, http.StatusConflict, ErrCodeTimeInvalid, "set the time before adding schedule entries")
		return
	}

	outcome, err := s.engine.ScheduleUpsert(r.Context(), entry)
	s.writeMutation(w, r, string(outcome), err)
}

// handleDeleteSchedule removes the entry at /schedule/{day}/{hour}/{minute}.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	key, err := momentFromPath(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeMutation(w, r, "deleted", s.engine.ScheduleDelete(r.Context(), key))
}

// handleClearSchedule empties the schedule.
func (s *Server) handleClearSchedule(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, r, "cleared", s.engine.ScheduleClear(r.Context()))
}

// writeMutation reports a schedule change. A persistence failure still
// answers 200 because the in-memory schedule already changed.
func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, outcome string, err error) {
	resp := mutationResponse{Outcome: outcome, Persisted: true}
	switch {
	case err == nil:
	case errors.Is(err, schedule.ErrPersistFailed):
		s.logger.Warn("schedule change not persisted", "error", err, "outcome", outcome)
		resp.Persisted = false
		resp.Warning = err.Error()
	default:
		s.writeDomainError(w, r, err)
		return
	}
	resp.Entries = s.engine.Status().Entries
	writeJSON(w, http.StatusOK, resp)
}

// momentFromPath parses the {day}/{hour}/{minute} URL parameters.
func momentFromPath(r *http.Request) (schedule.Moment, error) {
	var vals [3]int
	for i, name := range []string{"day", "hour", "minute"} {
		v, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil {
			return schedule.Moment{}, fmt.Errorf("%w: %s must be an integer", schedule.ErrInvalidEntry, name)
		}
		vals[i] = v
	}
	m := schedule.Moment{Weekday: time.Weekday(vals[0]), Hour: vals[1], Minute: vals[2]}
	if err := m.Validate(); err != nil {
		return schedule.Moment{}, err
	}
	return m, nil
}

// writeDecodeError reports a body that could not be decoded.
func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeDomainError(w, r, err)
		return
	}
	writeBadRequest(w, "invalid JSON body")
}
