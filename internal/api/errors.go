// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/wayfinder/internal/models"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// API error codes.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInsufficientData   = "INSUFFICIENT_DATA"
	ErrCodeStorage            = "STORAGE_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
)

// classify maps an error to its HTTP status, API code and optional details.
func classify(err error) (int, string, map[string]interface{}) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrCodeValidation, verr.ToAPIError().Details
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, nil
	}

	switch models.KindOf(err) {
	case models.ErrValidation:
		return http.StatusBadRequest, ErrCodeValidation, nil
	case models.ErrNotFound:
		return http.StatusNotFound, ErrCodeNotFound, nil
	case models.ErrConflict:
		return http.StatusConflict, ErrCodeConflict, nil
	case models.ErrInsufficientData:
		return http.StatusUnprocessableEntity, ErrCodeInsufficientData, nil
	case models.ErrStorage:
		return http.StatusServiceUnavailable, ErrCodeStorage, nil
	case models.ErrConfig, models.ErrState:
		return http.StatusInternalServerError, ErrCodeInternal, nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable, nil
	}
	return http.StatusInternalServerError, ErrCodeInternal, nil
}

// publicMessage hides internal detail behind 5xx responses.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "Internal error"
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	}
	return err.Error()
}
