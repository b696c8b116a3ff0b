package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tallyops/reportdesk-backend/internal/settings"
	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/logger"

	"github.com/tallyops/reportdesk-backend/api/responses"
	"github.com/tallyops/reportdesk-backend/api/validators"
)

type clockService interface {
	ResolveTimezone(ctx context.Context) string
	Invalidate(ctx context.Context)
	FormatTimestamp(ctx context.Context, t time.Time, includeSeconds bool) string
}

type timezoneRequest struct {
	Timezone string `json:"timezone" validate:"required"`
}

// GetTimezone returns the resolved console timezone and the current local time.
func GetTimezone(clk clockService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"timezone": clk.ResolveTimezone(r.Context()),
			"now":      clk.FormatTimestamp(r.Context(), time.Now(), true),
		})
	}
}

// SetTimezone stores a new console timezone and drops the cached value so
// every instance re-resolves.
func SetTimezone(repo settings.Repository, clk clockService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body timezoneRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tz := strings.TrimSpace(body.Timezone)
		if _, err := time.LoadLocation(tz); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown timezone"))
			return
		}

		if err := repo.Set(r.Context(), settings.KeyTimezone, tz); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store timezone"))
			return
		}
		clk.Invalidate(r.Context())

		responses.WriteSuccess(w, map[string]string{"timezone": tz})
	}
}
