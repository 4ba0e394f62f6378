package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/waveprint/waveprint/pkg/logger"
	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint"
	"github.com/waveprint/waveprint/pkg/waveprint/codec"
	"github.com/waveprint/waveprint/pkg/waveprint/matcher"
	"github.com/waveprint/waveprint/pkg/waveprint/storage"
)

const requestTimeout = 2 * time.Minute

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service waveprint.Service
	config  *ServerConfig
	log     waveprint.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           int
	DBPath         string
	Algorithm      models.Algorithm
	AllowedOrigins []string
}

// NewServer creates a new server instance.
func NewServer(service waveprint.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response.
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// logError records a failure with its stack for later debugging.
func (s *Server) logError(what string, err error) {
	s.log.Errorf("%s: %+v", what, xerrors.New(err))
}

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "WavePrint API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":          "GET /health",
			"recordings":      "GET /api/recordings",
			"addRecording":    "POST /api/recordings",
			"getRecording":    "GET /api/recordings/{id}",
			"deleteRecording": "DELETE /api/recordings/{id}",
			"matchFile":       "POST /api/match",
			"compare":         "POST /api/compare",
		},
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleRecordings handles GET (list) and POST (add) on /api/recordings.
func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRecordings(w)
	case http.MethodPost:
		s.addRecording(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listRecordings(w http.ResponseWriter) {
	recs, err := s.service.ListRecordings()
	if err != nil {
		s.logError("listing recordings", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}
	dtos := make([]RecordingDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toRecordingDTO(rec)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"recordings": dtos,
		"count":      len(dtos),
	})
}

func (s *Server) addRecording(w http.ResponseWriter, r *http.Request) {
	var req AddRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := req.Title
	if title == "" {
		title = req.Path
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, err := s.service.AddRecording(ctx, req.Path, title)
	if err != nil {
		s.logError("adding recording", err)
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleRecording handles GET and DELETE on /api/recordings/{id}.
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/recordings/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "recording id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.service.GetRecording(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, "recording not found")
				return
			}
			s.logError("fetching recording", err)
			s.respondError(w, http.StatusInternalServerError, "failed to fetch recording")
			return
		}
		s.respondJSON(w, http.StatusOK, toRecordingDTO(*rec))
	case http.MethodDelete:
		if err := s.service.DeleteRecording(id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, "recording not found")
				return
			}
			s.logError("deleting recording", err)
			s.respondError(w, http.StatusInternalServerError, "failed to delete recording")
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMatch handles POST /api/match: fingerprint a local file and search
// the catalog for overlapping recordings.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	results, err := s.service.FindDuplicates(ctx, req.Path)
	if err != nil {
		s.logError("matching file", err)
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	dtos := make([]MatchResultDTO, len(results))
	for i, res := range results {
		dtos[i] = MatchResultDTO{
			RecordingID:   res.RecordingID,
			Title:         res.Title,
			Confidence:    res.Confidence,
			MatchedFrames: res.MatchedFrames,
			BestOffsetMs:  res.BestOffsetMs,
			SegmentCount:  res.SegmentCount,
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": dtos,
		"count":   len(dtos),
	})
}

// handleCompare handles POST /api/compare: run the segment matcher over two
// encoded fingerprints without touching the catalog.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fpA, err := codec.DecompressText(req.FingerprintA)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "fingerprint_a: "+err.Error())
		return
	}

	session, err := waveprint.NewMatcherSession(fpA.Algorithm)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := session.SetFingerprint(0, req.FingerprintA); err != nil {
		s.respondError(w, http.StatusBadRequest, "fingerprint_a: "+err.Error())
		return
	}
	if err := session.SetFingerprint(1, req.FingerprintB); err != nil {
		if errors.Is(err, matcher.ErrAlgorithmMismatch) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, "fingerprint_b: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := session.Run(ctx); err != nil {
		s.logError("comparing fingerprints", err)
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	n, _ := session.NumSegments()
	dtos := make([]SegmentDTO, 0, n)
	for i := 0; i < n; i++ {
		seg, err := session.Segment(i)
		if err != nil {
			s.logError("reading segment", err)
			s.respondError(w, http.StatusInternalServerError, "failed to read segments")
			return
		}
		posA, posB, duration, _ := session.SegmentPositionMs(i)
		dtos = append(dtos, SegmentDTO{
			PosA:       seg.PosA,
			PosB:       seg.PosB,
			Length:     seg.Length,
			PosAMs:     posA,
			PosBMs:     posB,
			DurationMs: duration,
			Confidence: seg.Confidence(),
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"segments": dtos,
		"count":    len(dtos),
	})
}

func toRecordingDTO(rec models.Recording) RecordingDTO {
	return RecordingDTO{
		ID:              rec.ID,
		Title:           rec.Title,
		Source:          rec.Source,
		DurationMs:      rec.DurationMs,
		Algorithm:       int(rec.Algorithm),
		SimHash:         rec.SimHash,
		FingerprintSize: len(rec.Fingerprint),
	}
}
