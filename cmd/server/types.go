package main

import "fmt"

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// AddRecordingRequest is the request body for POST /api/recordings.
type AddRecordingRequest struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

func (r *AddRecordingRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// CompareRequest is the request body for POST /api/compare. Both fields are
// encoded fingerprints in the printable form.
type CompareRequest struct {
	FingerprintA string `json:"fingerprint_a"`
	FingerprintB string `json:"fingerprint_b"`
}

func (r *CompareRequest) Validate() error {
	if r.FingerprintA == "" || r.FingerprintB == "" {
		return fmt.Errorf("fingerprint_a and fingerprint_b are required")
	}
	return nil
}

// MatchRequest is the request body for POST /api/match.
type MatchRequest struct {
	Path string `json:"path"`
}

func (r *MatchRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// RecordingDTO is the JSON shape of one catalog entry.
type RecordingDTO struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Source          string `json:"source"`
	DurationMs      int    `json:"duration_ms"`
	Algorithm       int    `json:"algorithm"`
	SimHash         uint32 `json:"simhash"`
	FingerprintSize int    `json:"fingerprint_size"`
}

// MatchResultDTO is the JSON shape of one duplicate hit.
type MatchResultDTO struct {
	RecordingID   string `json:"recording_id"`
	Title         string `json:"title"`
	Confidence    int    `json:"confidence"`
	MatchedFrames int    `json:"matched_frames"`
	BestOffsetMs  int    `json:"best_offset_ms"`
	SegmentCount  int    `json:"segment_count"`
}

// SegmentDTO is the JSON shape of one matching segment.
type SegmentDTO struct {
	PosA       int `json:"pos_a"`
	PosB       int `json:"pos_b"`
	Length     int `json:"length"`
	PosAMs     int `json:"pos_a_ms"`
	PosBMs     int `json:"pos_b_ms"`
	DurationMs int `json:"duration_ms"`
	Confidence int `json:"confidence"`
}
