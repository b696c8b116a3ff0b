package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/logger"

	"github.com/tallyops/reportdesk-backend/api/responses"
	"github.com/tallyops/reportdesk-backend/api/validators"
)

type activationService interface {
	Issue(ctx context.Context, name string, codeType enums.ActivationCodeType) (*models.ActivationCode, error)
	Consume(ctx context.Context, code string) (*models.ActivationCode, error)
	List(ctx context.Context, codeType *enums.ActivationCodeType, activeOnly bool) ([]models.ActivationCode, error)
	PurgeExpired(ctx context.Context) (int64, error)
	SetAdminGroupCode(ctx context.Context, code string) error
	ActivateAdminGroup(ctx context.Context, groupID, code string) error
	ListAdminGroups(ctx context.Context) ([]models.AdminGroup, error)
}

type issueCodeRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=employee admin"`
}

type consumeCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type adminGroupCodeRequest struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

type activateGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Code    string `json:"code" validate:"required"`
}

// IssueActivationCode mints a one-time code binding a chat identity to a role.
func IssueActivationCode(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body issueCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		codeType, err := enums.ParseActivationCodeType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid code type"))
			return
		}

		code, err := svc.Issue(r.Context(), body.Name, codeType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, code)
	}
}

// ConsumeActivationCode redeems a one-time code exactly once.
func ConsumeActivationCode(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body consumeCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.Consume(r.Context(), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, code)
	}
}

// ListActivationCodes returns issued codes, optionally by type or liveness.
func ListActivationCodes(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var codeType *enums.ActivationCodeType
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			parsed, err := enums.ParseActivationCodeType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			codeType = &parsed
		}

		codes, err := svc.List(r.Context(), codeType, activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if codes == nil {
			codes = []models.ActivationCode{}
		}
		responses.WriteSuccess(w, codes)
	}
}

// PurgeActivationCodes drops expired unconsumed codes.
func PurgeActivationCodes(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		purged, err := svc.PurgeExpired(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"purged": purged})
	}
}

// SetAdminGroupCode replaces the standing four-digit group code.
func SetAdminGroupCode(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adminGroupCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetAdminGroupCode(r.Context(), body.Code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ActivateAdminGroup binds a chat group as an admin group.
func ActivateAdminGroup(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body activateGroupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ActivateAdminGroup(r.Context(), body.GroupID, body.Code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"status":   "activated",
			"group_id": body.GroupID,
		})
	}
}

// ListAdminGroups returns every activated admin group.
func ListAdminGroups(svc activationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.ListAdminGroups(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if groups == nil {
			groups = []models.AdminGroup{}
		}
		responses.WriteSuccess(w, groups)
	}
}
