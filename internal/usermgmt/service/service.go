// Package service orchestrates account registration and activation. Every
// outcome of the registration flow leaves an audit trail under the request's
// correlation id, including the failure paths.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"studygate/internal/platform/metrics"
	"studygate/internal/usermgmt/authserver"
	"studygate/internal/usermgmt/models"
	"studygate/internal/usermgmt/verification"
	"studygate/pkg/audit"
	"studygate/pkg/audit/emitter"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/email"
	"studygate/pkg/requestcontext"
	"studygate/pkg/sentinel"
)

// Store persists user accounts.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// VerificationStore caches one-time verification codes.
type VerificationStore interface {
	Save(ctx context.Context, email, code string) error
	Redeem(ctx context.Context, email, code string) error
}

// Auditor is the emitting side of the audit pipeline.
type Auditor interface {
	Emit(ctx context.Context, code audit.Code, opts ...emitter.EventOption)
}

// Service implements the user management operations.
type Service struct {
	store        Store
	auth         authserver.Client
	verification VerificationStore
	sender       email.Sender
	auditor      Auditor
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

func NewService(
	store Store,
	auth authserver.Client,
	verification VerificationStore,
	sender email.Sender,
	auditor Auditor,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:        store,
		auth:         auth,
		verification: verification,
		sender:       sender,
		auditor:      auditor,
		logger:       logger,
		metrics:      m,
	}
}

// Register creates an account. The flow is: record the attempt, reject
// duplicates, register credentials upstream, persist the local record, then
// send the verification email. A failure after the attempt event leaves
// exactly the events describing how far the flow got.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	s.auditor.Emit(ctx, audit.AccountRegistrationRequestReceived)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByEmail(ctx, req.Email); err == nil {
		s.auditor.Emit(ctx, audit.RegistrationFailedExistingUsername)
		return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing account")
	}

	reg, err := s.auth.RegisterUser(ctx, req.Email, req.Password)
	if err != nil {
		s.auditor.Emit(ctx, audit.UserNotCreatedAfterAuthFailure)
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
			return nil, dErrors.New(dErrors.CodeBadRequest, dErrors.MessageOf(err))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "auth server registration failed")
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:        reg.UserID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AppID:     req.AppID,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.auditor.Emit(ctx, audit.RegistrationFailedExistingUsername)
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store account")
	}

	s.auditor.Emit(ctx, audit.UserCreated, emitter.WithUserID(user.ID))
	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}

	s.sendVerification(ctx, user)
	return user, nil
}

// sendVerification issues and mails the activation code. Failures are
// audited and logged but never fail the registration: the user can request a
// resend.
func (s *Service) sendVerification(ctx context.Context, user *models.User) {
	code, err := verification.GenerateCode()
	if err == nil {
		err = s.verification.Save(ctx, user.Email, code)
	}
	if err == nil {
		err = s.sender.Send(ctx, email.Message{
			To:      user.Email,
			Subject: "Verify your account",
			Body:    fmt.Sprintf("Your verification code is %s.", code),
		})
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "verification email failed",
			"user_id", user.ID,
			"error", err,
		)
		s.auditor.Emit(ctx, audit.VerificationEmailFailed, emitter.WithUserID(user.ID))
		return
	}
	s.auditor.Emit(ctx, audit.VerificationEmailSent, emitter.WithUserID(user.ID))
}

// Verify redeems the emailed code and activates the account.
func (s *Service) Verify(ctx context.Context, req models.VerifyRequest) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if user.Status == models.StatusActive {
		return user, nil
	}

	if err := s.verification.Redeem(ctx, req.Email, req.Code); err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "verification code expired or not issued")
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "verification code does not match")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to redeem verification code")
	}

	user.Status = models.StatusActive
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate account")
	}

	s.auditor.Emit(ctx, audit.AccountActivated, emitter.WithUserID(user.ID))
	return user, nil
}
