// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package mfa

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medora-health/medora/internal/platform/apperr"
	requestutil "github.com/medora-health/medora/internal/platform/request"
	"github.com/medora-health/medora/internal/platform/respond"
	"github.com/medora-health/medora/internal/platform/validate"
)

// Handler exposes the multi-factor endpoints for the authenticated user.
type Handler struct {
	service *Service
}

// NewHandler creates the MFA HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the MFA endpoints. Every route operates on the caller's own
// enrollment; there is no administration surface here.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/setup", handler.setup)
	router.Post("/verify-setup", handler.verifySetup)
	router.Post("/verify", handler.verify)
	router.Post("/disable", handler.disable)
	router.Post("/backup-codes/regenerate", handler.regenerateBackupCodes)

	return router
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (body *verifyRequest) validate() error {
	v := &validate.Validator{}
	return v.
		Required("code", body.Code).
		MaxLen("code", body.Code, 16).
		Err()
}

type setupResponse struct {
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

// setup begins (or restarts) enrollment and returns the provisioning material.
func (handler *Handler) setup(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Setup(request.Context(), principal.UserID, principal.Username, metaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, setupResponse{
		Secret:      result.Secret,
		QRCodeURL:   result.QRCodeURL,
		BackupCodes: result.BackupCodes,
	})
}

// verifySetup confirms possession of the authenticator and enables MFA.
func (handler *Handler) verifySetup(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body, err := decodeVerifyBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.VerifySetup(request.Context(), principal.UserID, body.Code, metaFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"status": "enabled"})
}

// verify checks a TOTP or backup code for the current user.
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body, err := decodeVerifyBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Verify(request.Context(), principal.UserID, body.Code, metaFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"status": "verified"})
}

// disable turns MFA off. A valid code is required so a hijacked session
// cannot silently weaken the account.
func (handler *Handler) disable(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body, err := decodeVerifyBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Disable(request.Context(), principal.UserID, body.Code, metaFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"status": "disabled"})
}

type regenerateResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// regenerateBackupCodes replaces the remaining codes with a fresh set.
// Only a TOTP code authorizes this; a backup code cannot mint more of itself.
func (handler *Handler) regenerateBackupCodes(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body, err := decodeVerifyBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	codes, err := handler.service.RegenerateBackupCodes(request.Context(), principal.UserID, body.Code, metaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, regenerateResponse{BackupCodes: codes})
}

// decodeVerifyBody reads and validates the shared {code} payload.
func decodeVerifyBody(request *http.Request) (*verifyRequest, error) {
	body := &verifyRequest{}
	if err := requestutil.DecodeJSON(request, body); err != nil {
		if errors.Is(err, validate.ErrInvalidJSON) {
			return nil, apperr.ValidationError("Invalid JSON payload")
		}
		return nil, err
	}
	if err := body.validate(); err != nil {
		return nil, err
	}
	return body, nil
}

// metaFromRequest captures the audit context of the call.
func metaFromRequest(request *http.Request) RequestMeta {
	meta := RequestMeta{
		IPAddress: request.RemoteAddr,
		UserAgent: request.UserAgent(),
	}
	if principal := requestutil.Principal(request); principal != nil {
		meta.OrganizationID = principal.CurrentOrganizationID
	}
	return meta
}
