package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/shabbat-clock/internal/command"
	"github.com/nerrad567/shabbat-clock/internal/engine"
)

// commandRequest is the body of POST /command.
type commandRequest struct {
	Command string `json:"command"`
}

// commandResponse echoes the command and the resulting status. Ack is set
// for lock commands.
type commandResponse struct {
	Command command.Command `json:"command"`
	Ack     *ackDTO         `json:"ack,omitempty"`
	Status  engine.Status   `json:"status"`
}

type ackDTO struct {
	State     string `json:"state"`
	ElapsedMS int64  `json:"elapsedMs"`
	Response  string `json:"response,omitempty"`
}

// handleCommand runs one word of the operator vocabulary.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	cmd, err := command.Parse(req.Command)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := commandResponse{Command: cmd}
	switch cmd {
	case command.Shabbat, command.Week:
		result, lockErr := s.engine.RequestLock(r.Context(), cmd == command.Shabbat)
		if lockErr != nil {
			s.writeDomainError(w, r, lockErr)
			return
		}
		resp.Ack = &ackDTO{
			State:     result.State.String(),
			ElapsedMS: result.Elapsed.Milliseconds(),
			Response:  result.Response,
		}
	default:
		if err := command.Dispatch(r.Context(), s.engine, cmd); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	resp.Status = s.engine.Status()
	writeJSON(w, http.StatusOK, resp)
}

// setTimeRequest is the body of PUT /time, in the clock's local zone.
type setTimeRequest struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// handleSetTime sets the wall clock.
func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	var req setTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	if err := s.engine.SetTime(r.Context(), req.Year, req.Month, req.Day, req.Hour, req.Minute, req.Second); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status())
}
