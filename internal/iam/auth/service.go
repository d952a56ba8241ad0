// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/iam/session"
	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/sec"
)

// # Service

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to credential
// verification or the login flow must be reviewed by the security team.
type Service struct {
	users    UserRepository
	sessions session.Store
	tokens   *sec.TokenService
	auditLog *audit.Logger
}

// NewService constructs the auth [Service].
func NewService(users UserRepository, sessions session.Store, tokens *sec.TokenService, auditLog *audit.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		auditLog: auditLog,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult carries both credential carriers minted at login: a bearer
// token for API clients and a session id for cookie-based browser clients.
type LoginResult struct {
	Token          string
	TokenExpiresAt time.Time
	SessionID      string
	User           *User
}

/*
Authenticate verifies credentials and establishes both credential carriers.

Description: Unknown username, wrong password, and deactivated account all
produce the identical generic error so responses cannot be used to enumerate
accounts. Every outcome is audited.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Bearer token and session id
  - error: apperr.InvalidCredentials or internal failures
*/
func (service *Service) Authenticate(context context.Context, input LoginInput) (*LoginResult, error) {

	// Look up the account. A miss gets the same generic rejection as a
	// wrong password.
	user, err := service.users.FindByUsername(context, input.Username)
	if err != nil {
		service.logFailure(context, input, "unknown_username")
		return nil, apperr.InvalidCredentials()
	}

	// bcrypt comparison is constant-time over the hash.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.logFailure(context, input, "wrong_password")
		return nil, apperr.InvalidCredentials()
	}

	if !user.IsActive {
		service.logFailure(context, input, "account_inactive")
		return nil, apperr.InvalidCredentials()
	}

	principal := user.Principal()

	token, tokenExpiresAt, err := service.tokens.IssueToken(principal, constants.BearerTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	sessionID, err := service.sessions.Create(context, principal)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	service.auditLog.Log(context, audit.Entry{
		ActorUserID:    user.ID,
		OrganizationID: user.OrganizationID,
		Action:         audit.ActionLoginSucceeded,
		EntityType:     "user",
		EntityID:       user.ID,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
	})

	return &LoginResult{
		Token:          token,
		TokenExpiresAt: tokenExpiresAt,
		SessionID:      sessionID,
		User:           user,
	}, nil
}

// RequestMeta carries audit context from the transport layer.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

/*
Logout destroys the caller's session.

Description: Idempotent; logging out an already-dead session succeeds.
Bearer tokens are stateless and remain valid until expiry; only the session
carrier is revocable.

Parameters:
  - context: context.Context
  - principal: *sec.Principal
  - sessionID: string
  - meta: RequestMeta

Returns:
  - error: Persistence failures
*/
func (service *Service) Logout(context context.Context, principal *sec.Principal, sessionID string, meta RequestMeta) error {
	if err := service.sessions.Destroy(context, sessionID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.auditLog.Log(context, audit.Entry{
		ActorUserID:    principal.UserID,
		OrganizationID: principal.OrganizationID,
		Action:         audit.ActionLogout,
		EntityType:     "session",
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
	})
	return nil
}

// # Organization Assumption

/*
AssumeOrganization switches the session's effective tenant.

Description: Only the session snapshot's CurrentOrganizationID changes; the
home OrganizationID and every other field are immutable after login. Bearer
tokens cannot assume; they carry no server-side state to rewrite.

Permission model: a super admin may assume any organization; an organization
admin may only re-assume their own (returning from nowhere, effectively a
no-op); all other roles are refused.

Parameters:
  - context: context.Context
  - principal: *sec.Principal
  - sessionID: string (empty when the request authenticated via token)
  - organizationID: string (target tenant)
  - meta: RequestMeta

Returns:
  - *sec.Principal: Updated snapshot
  - error: Forbidden, InsufficientPermissions, or persistence failures
*/
func (service *Service) AssumeOrganization(context context.Context, principal *sec.Principal, sessionID, organizationID string, meta RequestMeta) (*sec.Principal, error) {
	if sessionID == "" {
		return nil, apperr.Forbidden("Organization assumption requires a session credential")
	}

	switch {
	case principal.Role.IsSuperAdmin():
		// Any organization.
	case principal.Role == sec.RoleAdmin && organizationID == principal.OrganizationID:
		// Returning to the home organization only.
	default:
		return nil, apperr.InsufficientPermissions()
	}

	if err := service.sessions.AssumeOrganization(context, sessionID, organizationID); err != nil {
		return nil, err
	}

	service.auditLog.Log(context, audit.Entry{
		ActorUserID:    principal.UserID,
		OrganizationID: principal.OrganizationID,
		Action:         audit.ActionAssumeOrganization,
		EntityType:     "organization",
		EntityID:       organizationID,
		Details: map[string]any{
			"from": principal.CurrentOrganizationID,
			"to":   organizationID,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	updated := *principal
	updated.CurrentOrganizationID = organizationID
	return &updated, nil
}

// logFailure records a rejected authentication attempt. The username is
// kept in details because there is no actor id to attribute.
func (service *Service) logFailure(context context.Context, input LoginInput, reason string) {
	service.auditLog.Log(context, audit.Entry{
		Action:     audit.ActionLoginFailed,
		EntityType: "user",
		Details: map[string]any{
			"username": input.Username,
			"reason":   reason,
		},
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
}
