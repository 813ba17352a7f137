package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

// httpStatus maps the engine's condition codes to HTTP status classes so
// callers can distinguish invalid requests from broken infrastructure
// without parsing the envelope.
func httpStatus(err error) int {
	errx := errorx.Error{}
	if !errors.As(err, &errx) {
		return http.StatusInternalServerError
	}

	switch errx.Code {
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.PermissionDenied, errorx.FeatureDisabled:
		return http.StatusForbidden
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.TokenExpired, errorx.Inactive:
		return http.StatusGone
	case errorx.AlreadyRevealed, errorx.AlreadyDelivered, errorx.AlreadyRedeemed,
		errorx.AlreadyExists, errorx.RaceCondition, errorx.SessionFinished,
		errorx.UsageLimitReached:
		return http.StatusConflict
	case errorx.OutsideTimeWindow, errorx.NotRevealed, errorx.NotDelivered,
		errorx.NotEligible, errorx.Unavailable:
		return http.StatusUnprocessableEntity
	case errorx.TooManyRequests:
		return http.StatusTooManyRequests
	case errorx.BadRequest, errorx.BadResponse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(ctx context.Context) {
	w := xcontext.HTTPWriter(ctx)
	w.Header().Set("Content-Type", "application/json")

	if err := xcontext.Error(ctx); err != nil {
		w.WriteHeader(httpStatus(err))
		if err := WriteJson(w, newErrorResponse(err)); err != nil {
			xcontext.Logger(ctx).Errorf("cannot write the error response: %v", err)
		}

		return
	}

	if err := WriteJson(w, newResponse(xcontext.Response(ctx))); err != nil {
		xcontext.Logger(ctx).Errorf("cannot write the response: %v", err)
		xcontext.SetError(ctx, errorx.New(errorx.BadResponse, "Cannot write the response"))
	}
}

func WriteJson(w http.ResponseWriter, resp any) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if _, err := w.Write(b); err != nil {
		return err
	}

	return nil
}
