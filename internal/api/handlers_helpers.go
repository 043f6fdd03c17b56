// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfinder/internal/database"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes the envelope with status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope timed from start.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError writes an error envelope. err, when non-nil, is logged.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}, err error) {
	if err != nil {
		evt := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			evt = logging.Ctx(r.Context()).Error()
		}
		evt.Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondErr maps err to its status and writes the error envelope.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code, details := classify(err)
	respondError(w, r, status, code, publicMessage(status, err), details, err)
}

// validateRequest runs the struct validator over v.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// decodeBody reads a JSON body of at most maxBodyBytes into v and
// validates it. On failure the error response has already been written.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		status, code := http.StatusBadRequest, ErrCodeBadRequest
		if s, c, _ := classify(err); s == http.StatusRequestEntityTooLarge {
			status, code = s, c
		}
		respondError(w, r, status, code, "Invalid request body", nil, err)
		return false
	}
	if apiErr := validateRequest(v); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, models.ValidationError("parse query", "%s must be an integer", key)
	}
	return n, nil
}

// getTimeParam parses an RFC 3339 query parameter; absent yields zero.
func getTimeParam(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, models.ValidationError("parse query", "%s must be an RFC 3339 timestamp", key)
	}
	return t, nil
}

// parseCommaSeparated splits a comma list, dropping empty items.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// interactionQuery builds a store filter from from, to, stage and limit.
func interactionQuery(r *http.Request) (database.InteractionQuery, error) {
	from, err := getTimeParam(r, "from")
	if err != nil {
		return database.InteractionQuery{}, err
	}
	to, err := getTimeParam(r, "to")
	if err != nil {
		return database.InteractionQuery{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return database.InteractionQuery{}, models.ValidationError("parse query", "to must not be before from")
	}
	limit, err := getIntParam(r, "limit", 0)
	if err != nil {
		return database.InteractionQuery{}, err
	}
	if limit < 0 {
		return database.InteractionQuery{}, models.ValidationError("parse query", "limit must not be negative")
	}
	return database.InteractionQuery{
		From:   from,
		To:     to,
		Stages: parseCommaSeparated(r.URL.Query().Get("stage")),
		Limit:  limit,
	}, nil
}
