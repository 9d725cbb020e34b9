package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/journal"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// proveRequest accepts the statement and inline rules either as clause
// text (a JSON string) or in the JSON interchange shape.
type proveRequest struct {
	KB        string          `json:"kb"`
	Rules     json.RawMessage `json:"rules,omitempty"`
	Statement json.RawMessage `json:"statement"`
	MaxDepth  *int            `json:"max_depth,omitempty"`
}

type proofResponse struct {
	ID         string            `json:"id"`
	KB         string            `json:"kb,omitempty"`
	Statement  string            `json:"statement"`
	Provable   bool              `json:"provable"`
	Reason     string            `json:"reason,omitempty"`
	Answer     string            `json:"answer,omitempty"`
	Bindings   map[string]string `json:"bindings,omitempty"`
	Steps      int               `json:"steps"`
	MaxDepth   int               `json:"max_depth"`
	DurationMS float64           `json:"duration_ms"`
	At         time.Time         `json:"at"`
}

type kbInfoResponse struct {
	Name      string    `json:"name"`
	Rules     int       `json:"rules"`
	Facts     int       `json:"facts"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProve(w http.ResponseWriter, r *http.Request) {
	var req proveRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, bodyError(err))
		return
	}

	statement, err := decodeStatement(req.Statement)
	if err != nil {
		s.writeError(w, err)
		return
	}
	preq := horn.ProveRequest{KB: req.KB, Statement: statement, MaxDepth: req.MaxDepth}
	if present(req.Rules) {
		kb, err := decodeRules(req.Rules)
		if err != nil {
			s.writeError(w, err)
			return
		}
		preq.Rules = &kb
	}

	resp, err := s.horn.Prove(r.Context(), preq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProofResponse(resp.Record))
}

func (s *Server) handleListKBs(w http.ResponseWriter, r *http.Request) {
	kbs, err := s.horn.ListKBs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]kbInfoResponse, len(kbs))
	for i, kb := range kbs {
		out[i] = kbInfoResponse{Name: kb.Name, Rules: kb.Rules, Facts: kb.Facts, UpdatedAt: kb.UpdatedAt}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetKB(w http.ResponseWriter, r *http.Request) {
	kb, err := s.horn.GetKB(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := kbio.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		if format, err = kbio.ParseFormat(f); err != nil {
			s.writeError(w, err)
			return
		}
	}
	data, err := kbio.EncodeKB(kb, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handlePutKB imports a knowledge base. The body format follows the
// Content-Type: YAML and plain text are recognized, anything else is JSON.
func (s *Server) handlePutKB(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, bodyError(err))
		return
	}
	kb, err := kbio.ParseKB(data, formatFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := r.PathValue("name")
	if err := s.horn.ImportKB(r.Context(), name, kb); err != nil {
		s.writeError(w, err)
		return
	}
	facts := len(kb.Facts())
	s.writeJSON(w, http.StatusOK, kbInfoResponse{Name: name, Rules: len(kb.Rules), Facts: facts, UpdatedAt: time.Now().UTC()})
}

func (s *Server) handleDeleteKB(w http.ResponseWriter, r *http.Request) {
	if err := s.horn.DeleteKB(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProofs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("%w: limit %q", internalerr.ErrInvalidInput, v))
			return
		}
		limit = n
	}
	records, err := s.horn.History(r.Context(), r.URL.Query().Get("kb"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]proofResponse, len(records))
	for i, rec := range records {
		out[i] = toProofResponse(rec)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// present reports whether a raw field carries a value. JSON null counts as
// absent.
func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func decodeStatement(raw json.RawMessage) (logic.Atom, error) {
	raw = bytes.TrimSpace(raw)
	if !present(raw) {
		return logic.Atom{}, fmt.Errorf("%w: statement is required", internalerr.ErrInvalidInput)
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return logic.Atom{}, fmt.Errorf("%w: %v", internalerr.ErrParse, err)
		}
		return kbio.ParseAtom(text)
	}
	return kbio.ParseStatement(raw, kbio.FormatJSON)
}

func decodeRules(raw json.RawMessage) (logic.KB, error) {
	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return logic.KB{}, fmt.Errorf("%w: %v", internalerr.ErrParse, err)
		}
		return kbio.ParseText(text)
	}
	return kbio.ParseKB(raw, kbio.FormatJSON)
}

func toProofResponse(rec journal.Record) proofResponse {
	return proofResponse{
		ID:         rec.ID,
		KB:         rec.KB,
		Statement:  rec.Statement,
		Provable:   rec.Provable,
		Reason:     rec.Reason,
		Answer:     rec.Answer,
		Bindings:   rec.Bindings,
		Steps:      rec.Steps,
		MaxDepth:   rec.MaxDepth,
		DurationMS: float64(rec.Duration) / float64(time.Millisecond),
		At:         rec.At,
	}
}

func formatFromContentType(ct string) kbio.Format {
	switch {
	case strings.Contains(ct, "yaml"):
		return kbio.FormatYAML
	case strings.HasPrefix(ct, "text/"):
		return kbio.FormatText
	}
	return kbio.FormatJSON
}

func contentType(f kbio.Format) string {
	switch f {
	case kbio.FormatYAML:
		return "application/yaml"
	case kbio.FormatText:
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// bodyError keeps size-limit errors intact and marks the rest as parse errors.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return fmt.Errorf("%w: %v", internalerr.ErrParse, err)
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case internalerr.IsMalformed(err), errors.Is(err, internalerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}
