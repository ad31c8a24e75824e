package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/backend"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", status).
			Msg("Request failed")
	}

	var sendErr error
	if c.Request().Method == http.MethodHead {
		sendErr = c.NoContent(status)
	} else {
		sendErr = c.JSON(status, body)
	}
	if sendErr != nil {
		s.logger.Error().Err(sendErr).Msg("Failed to send error response")
	}
}

// errorResponse maps err onto a status and body. Credential problems win
// over the domain code so a rejected publish asks the user to sign in again.
func errorResponse(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
		return he.Code, ErrorResponse{Message: msg}
	}

	switch {
	case errors.Is(err, backend.ErrTokenMissing):
		return http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: "sign in to continue"}
	case errors.Is(err, backend.ErrTokenExpired),
		errors.Is(err, backend.ErrTokenInvalid),
		errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: "your session has expired, sign in again"}
	case errors.Is(err, backend.ErrNotConfigured):
		return http.StatusServiceUnavailable, ErrorResponse{Code: "UNAVAILABLE", Message: "ranking storage is not configured"}
	}

	if e, ok := apperr.As(err); ok {
		return e.HTTPStatus(), ErrorResponse{Code: string(e.Code), Message: e.Message, Fields: e.Fields}
	}

	if errors.Is(err, backend.ErrRejected) || errors.Is(err, backend.ErrAPIError) {
		return http.StatusBadGateway, ErrorResponse{Code: "BACKEND_ERROR", Message: "ranking storage request failed"}
	}

	return http.StatusInternalServerError, ErrorResponse{Code: string(apperr.CodeInternal), Message: "internal error"}
}
