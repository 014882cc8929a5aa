package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
	pkgValidation "BizBooksPlatform/pkg/validation"
	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/notify"
	"BizBooksPlatform/services/auth-service/internal/pkg/password"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

const (
	FlowRegister           = "register"
	FlowVerify             = "verify"
	FlowUserActivate       = "user_activate"
	FlowLogin              = "login"
	FlowForgotPassword     = "forgot_password"
	FlowVerifyCode         = "verify_code"
	FlowConfirmPassword    = "confirm_password"
	FlowApplyForActivation = "apply_activation"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidCode        = "invalid or expired code"
	msgAccepted           = "if the account is eligible, a code has been sent"
)

// TokenIssuer mints session tokens. *jwt.Manager implements it.
type TokenIssuer interface {
	Issue(subject, tenantID, email string) (string, time.Time, error)
}

// Observer records flow outcomes. *metrics.Metrics implements it.
type Observer interface {
	ObserveFlow(flow, outcome string)
	CodeIssued(purpose string)
}

type nopObserver struct{}

func (nopObserver) ObserveFlow(string, string) {}
func (nopObserver) CodeIssued(string)          {}

// Session is returned by login and confirm-password.
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	BusinessID  string       `json:"business_id"`
	User        *domain.User `json:"user"`
}

// Accepted is the uniform answer of flows that must not reveal whether an
// account exists.
type Accepted struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ActivationStatus reports where an account is in its lifecycle.
type ActivationStatus struct {
	Email    string               `json:"email"`
	Status   domain.AccountStatus `json:"status"`
	CodeSent bool                 `json:"code_sent,omitempty"`
}

type RegisterInput struct {
	BusinessName string  `json:"business_name"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	Password     string  `json:"password"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Mobile       *string `json:"mobile"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.BusinessName, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, pkgValidation.EmailRules...),
		validation.Field(&in.Username, pkgValidation.UsernameRules...),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.FirstName, validation.Length(0, 100)),
		validation.Field(&in.LastName, validation.Length(0, 100)),
		validation.Field(&in.Mobile, pkgValidation.MobileRules...),
	)
}

type emailInput struct {
	Email string `json:"email"`
}

func (in emailInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, pkgValidation.EmailRules...),
	)
}

type codeInput struct {
	Email  string `json:"email"`
	Code   string `json:"code"`
	length int
}

func (in codeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, pkgValidation.EmailRules...),
		validation.Field(&in.Code, pkgValidation.CodeRules(in.length)...),
	)
}

type codePayload struct {
	UserID     string `json:"user_id"`
	BusinessID string `json:"business_id"`
}

// AuthService is the account lifecycle: registration, activation, login and
// password reset, plus the tenant-scoped reads of the caller's own account.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Accepted, error)
	Verify(ctx context.Context, email, code string) (*ActivationStatus, error)
	UserActivate(ctx context.Context, email string) (*ActivationStatus, error)
	Login(ctx context.Context, identifier, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) (*Accepted, error)
	VerifyCode(ctx context.Context, email, code string) error
	ConfirmPassword(ctx context.Context, email, code, newPassword string) (*Session, error)
	ApplyForActivation(ctx context.Context, email string) (*Accepted, error)

	Me(ctx context.Context, tc TenantContext) (*domain.User, error)
	Business(ctx context.Context, tc TenantContext) (*domain.Business, error)
	ListUsers(ctx context.Context, tc TenantContext) ([]*domain.User, error)
	GetUser(ctx context.Context, tc TenantContext, userID string) (*domain.User, error)
}

// Dependencies collects what Service needs. Notifier and Metrics are optional.
type Dependencies struct {
	Businesses repository.BusinessRepository
	Users      repository.UserRepository
	Transactor repository.Transactor
	Vault      *CodeVault
	Tokens     TokenIssuer
	Hasher     password.Hasher
	Notifier   notify.Notifier
	Logger     logger.Logger
	Metrics    Observer
}

// Service implements AuthService.
type Service struct {
	businesses repository.BusinessRepository
	users      repository.UserRepository
	tx         repository.Transactor
	vault      *CodeVault
	tokens     TokenIssuer
	hasher     password.Hasher
	notifier   notify.Notifier
	log        logger.Logger
	metrics    Observer
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewAuthService(deps Dependencies, opts ...Option) *Service {
	s := &Service{
		businesses: deps.Businesses,
		users:      deps.Users,
		tx:         deps.Transactor,
		vault:      deps.Vault,
		tokens:     deps.Tokens,
		hasher:     deps.Hasher,
		notifier:   deps.Notifier,
		log:        deps.Logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.metrics == nil {
		s.metrics = nopObserver{}
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.log)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a pending Business and its first User, then sends an
// activation code. A taken email or username is reported as CONFLICT.
func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *Accepted, err error) {
	defer s.observe(FlowRegister, &err)

	in.Email = pkgValidation.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	if err := pkgValidation.Validate(in); err != nil {
		return nil, err
	}
	if err := s.hasher.Validate(in.Password); err != nil {
		return nil, pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails("password: " + err.Error())
	}

	if err := s.ensureAvailable(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, FlowRegister, err)
	}

	now := s.now().UTC()
	business := &domain.Business{
		ID:        uuid.NewString(),
		Name:      in.BusinessName,
		Email:     in.Email,
		Mobile:    in.Mobile,
		Status:    domain.StatusPendingActivation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		BusinessID:   business.ID,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Mobile:       in.Mobile,
		Status:       domain.StatusPendingActivation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var issued *IssuedCode
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.businesses.Create(ctx, business); err != nil {
			return err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		code, err := s.issueCode(ctx, user, domain.PurposeRegistrationActivation)
		issued = code
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, pkgErrors.New(pkgErrors.ErrConflict, "account already exists")
		}
		return nil, s.internal(ctx, FlowRegister, err)
	}

	s.log.Info("business registered",
		logger.CtxField(ctx),
		logger.String("business_id", business.ID),
		logger.String("user_id", user.ID),
	)
	s.sendCode(ctx, notify.EventActivationCode, user, issued)

	return accepted(), nil
}

// Verify redeems a registration code and activates the User and its Business
// in the same transaction.
func (s *Service) Verify(ctx context.Context, email, code string) (_ *ActivationStatus, err error) {
	defer s.observe(FlowVerify, &err)

	email = pkgValidation.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := s.validateCode(email, code); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.vault.Consume(ctx, email, domain.PurposeRegistrationActivation, code); err != nil {
			return err
		}
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if err := s.users.UpdateStatus(ctx, user.ID, domain.StatusActive); err != nil {
			return err
		}
		return s.businesses.UpdateStatus(ctx, user.BusinessID, domain.StatusActive)
	})
	if err != nil {
		if errors.Is(err, repository.ErrCodeInvalid) || errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("activation rejected", logger.CtxField(ctx), logger.Error(err))
			return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, msgInvalidCode)
		}
		return nil, s.internal(ctx, FlowVerify, err)
	}

	s.log.Info("account activated", logger.CtxField(ctx), logger.String("email", email))
	return &ActivationStatus{Email: email, Status: domain.StatusActive}, nil
}

// UserActivate reports the activation status of email. A pending account
// gets a fresh activation code.
func (s *Service) UserActivate(ctx context.Context, email string) (_ *ActivationStatus, err error) {
	defer s.observe(FlowUserActivate, &err)

	email = pkgValidation.NormalizeEmail(email)
	if err := pkgValidation.Validate(emailInput{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, "account not found")
		}
		return nil, s.internal(ctx, FlowUserActivate, err)
	}

	status := &ActivationStatus{Email: email, Status: user.Status}
	if user.IsActive() {
		return status, nil
	}

	issued, err := s.issueCode(ctx, user, domain.PurposeRegistrationActivation)
	if err != nil {
		return nil, s.internal(ctx, FlowUserActivate, err)
	}
	s.sendCode(ctx, notify.EventActivationCode, user, issued)
	status.CodeSent = true

	return status, nil
}

// Login accepts an email or a username. Unknown identity, wrong password and
// an account that is not active all yield the same UNAUTHORIZED error.
func (s *Service) Login(ctx context.Context, identifier, plain string) (_ *Session, err error) {
	defer s.observe(FlowLogin, &err)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plain == "" {
		return nil, pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails("email and password are required")
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal(ctx, FlowLogin, err)
	}

	if user == nil {
		// Burn the same bcrypt work as a real check.
		s.hasher.Check(plain, s.dummy())
		return nil, s.rejectLogin(ctx, "unknown identity")
	}
	if !s.hasher.Check(plain, user.PasswordHash) {
		return nil, s.rejectLogin(ctx, "password mismatch")
	}
	if !user.IsActive() {
		return nil, s.rejectLogin(ctx, "account not active")
	}

	business, err := s.businesses.FindByID(ctx, user.BusinessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.rejectLogin(ctx, "business missing")
		}
		return nil, s.internal(ctx, FlowLogin, err)
	}
	if !business.IsActive() {
		return nil, s.rejectLogin(ctx, "business not active")
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, s.internal(ctx, FlowLogin, err)
	}

	s.log.Info("login succeeded",
		logger.CtxField(ctx),
		logger.String("user_id", user.ID),
		logger.String("business_id", user.BusinessID),
	)
	return session, nil
}

// ForgotPassword sends a reset code to an active account. Every other case
// returns the same Accepted answer.
func (s *Service) ForgotPassword(ctx context.Context, email string) (_ *Accepted, err error) {
	defer s.observe(FlowForgotPassword, &err)

	email = pkgValidation.NormalizeEmail(email)
	if err := pkgValidation.Validate(emailInput{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.log.Info("password reset skipped", logger.CtxField(ctx), logger.String("reason", "unknown email"))
		return accepted(), nil
	case err != nil:
		return nil, s.internal(ctx, FlowForgotPassword, err)
	case !user.IsActive():
		s.log.Info("password reset skipped", logger.CtxField(ctx), logger.String("reason", "account not active"))
		return accepted(), nil
	}

	issued, err := s.issueCode(ctx, user, domain.PurposePasswordReset)
	if err != nil {
		return nil, s.internal(ctx, FlowForgotPassword, err)
	}
	s.sendCode(ctx, notify.EventPasswordResetCode, user, issued)

	return accepted(), nil
}

// VerifyCode checks a reset code without consuming it. ConfirmPassword is
// the single point where the code is spent.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (err error) {
	defer s.observe(FlowVerifyCode, &err)

	email = pkgValidation.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := s.validateCode(email, code); err != nil {
		return err
	}

	if err := s.vault.Check(ctx, email, domain.PurposePasswordReset, code); err != nil {
		if errors.Is(err, repository.ErrCodeInvalid) {
			s.log.Warn("reset code rejected", logger.CtxField(ctx), logger.Error(err))
			return pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, msgInvalidCode)
		}
		return s.internal(ctx, FlowVerifyCode, err)
	}

	return nil
}

// ConfirmPassword spends the reset code and replaces the password hash in one
// transaction, then signs the user in.
func (s *Service) ConfirmPassword(ctx context.Context, email, code, newPassword string) (_ *Session, err error) {
	defer s.observe(FlowConfirmPassword, &err)

	email = pkgValidation.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := s.validateCode(email, code); err != nil {
		return nil, err
	}
	if err := s.hasher.Validate(newPassword); err != nil {
		return nil, pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails("password: " + err.Error())
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, s.internal(ctx, FlowConfirmPassword, err)
	}

	var user *domain.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.vault.Consume(ctx, email, domain.PurposePasswordReset, code); err != nil {
			return err
		}
		found, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !found.IsActive() {
			return repository.ErrNotFound
		}
		if err := s.users.UpdatePassword(ctx, found.ID, passwordHash); err != nil {
			return err
		}
		found.PasswordHash = passwordHash
		user = found
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrCodeInvalid) || errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("password reset rejected", logger.CtxField(ctx), logger.Error(err))
			return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, msgInvalidCode)
		}
		return nil, s.internal(ctx, FlowConfirmPassword, err)
	}

	s.log.Info("password reset", logger.CtxField(ctx), logger.String("user_id", user.ID))

	session, err := s.newSession(user)
	if err != nil {
		return nil, s.internal(ctx, FlowConfirmPassword, err)
	}
	return session, nil
}

// ApplyForActivation re-sends the activation code of a pending account.
// Unknown and already active accounts get the same Accepted answer.
func (s *Service) ApplyForActivation(ctx context.Context, email string) (_ *Accepted, err error) {
	defer s.observe(FlowApplyForActivation, &err)

	email = pkgValidation.NormalizeEmail(email)
	if err := pkgValidation.Validate(emailInput{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.log.Info("activation skipped", logger.CtxField(ctx), logger.String("reason", "unknown email"))
		return accepted(), nil
	case err != nil:
		return nil, s.internal(ctx, FlowApplyForActivation, err)
	case user.IsActive():
		s.log.Info("activation skipped", logger.CtxField(ctx), logger.String("reason", "already active"))
		return accepted(), nil
	}

	issued, err := s.issueCode(ctx, user, domain.PurposeRegistrationActivation)
	if err != nil {
		return nil, s.internal(ctx, FlowApplyForActivation, err)
	}
	s.sendCode(ctx, notify.EventActivationCode, user, issued)

	return accepted(), nil
}

// AccountStatus reports the lifecycle status of email without side effects.
// It backs administrative tooling and is not exposed over HTTP.
func (s *Service) AccountStatus(ctx context.Context, email string) (*ActivationStatus, error) {
	email = pkgValidation.NormalizeEmail(email)
	if err := pkgValidation.Validate(emailInput{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, "account not found")
		}
		return nil, s.internal(ctx, "status", err)
	}
	return &ActivationStatus{Email: email, Status: user.Status}, nil
}

func (s *Service) Me(ctx context.Context, tc TenantContext) (*domain.User, error) {
	return s.GetUser(ctx, tc, tc.UserID)
}

func (s *Service) Business(ctx context.Context, tc TenantContext) (*domain.Business, error) {
	if err := tc.Authorize(tc.BusinessID); err != nil {
		return nil, err
	}

	business, err := s.businesses.FindByID(ctx, tc.BusinessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, "not found")
		}
		return nil, s.internal(ctx, "business", err)
	}
	if err := tc.Authorize(business.ID); err != nil {
		return nil, err
	}
	return business, nil
}

// ListUsers returns the users of the caller's business only.
func (s *Service) ListUsers(ctx context.Context, tc TenantContext) ([]*domain.User, error) {
	if err := tc.Authorize(tc.BusinessID); err != nil {
		return nil, err
	}

	users, err := s.users.ListByBusiness(ctx, tc.BusinessID)
	if err != nil {
		return nil, s.internal(ctx, "list_users", err)
	}

	scoped := make([]*domain.User, 0, len(users))
	for _, user := range users {
		if tc.Authorize(user.BusinessID) == nil {
			scoped = append(scoped, user)
		}
	}
	return scoped, nil
}

// GetUser returns NOT_FOUND_OR_INVALID for ids outside the caller's business.
func (s *Service) GetUser(ctx context.Context, tc TenantContext, userID string) (*domain.User, error) {
	if err := tc.Authorize(tc.BusinessID); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, "not found")
	}

	user, err := s.users.FindByIDInBusiness(ctx, tc.BusinessID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, "not found")
		}
		return nil, s.internal(ctx, "get_user", err)
	}
	if err := tc.Authorize(user.BusinessID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return pkgErrors.New(pkgErrors.ErrConflict, "account already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return s.internal(ctx, FlowRegister, err)
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return pkgErrors.New(pkgErrors.ErrConflict, "account already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return s.internal(ctx, FlowRegister, err)
	}

	if _, err := s.businesses.FindByEmail(ctx, email); err == nil {
		return pkgErrors.New(pkgErrors.ErrConflict, "account already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return s.internal(ctx, FlowRegister, err)
	}

	return nil
}

func (s *Service) findByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		return s.users.FindByEmail(ctx, pkgValidation.NormalizeEmail(identifier))
	}
	return s.users.FindByUsername(ctx, identifier)
}

func (s *Service) validateCode(email, code string) error {
	return pkgValidation.Validate(codeInput{Email: email, Code: code, length: s.vault.Length()})
}

func (s *Service) issueCode(ctx context.Context, user *domain.User, purpose domain.CodePurpose) (*IssuedCode, error) {
	payload, err := json.Marshal(codePayload{UserID: user.ID, BusinessID: user.BusinessID})
	if err != nil {
		return nil, err
	}

	issued, err := s.vault.Issue(ctx, user.Email, purpose, payload)
	if err != nil {
		return nil, err
	}
	s.metrics.CodeIssued(string(purpose))
	return issued, nil
}

// sendCode hands the code to the notifier. A delivery failure is logged and
// does not fail the flow; the user can ask for a new code.
func (s *Service) sendCode(ctx context.Context, eventType notify.EventType, user *domain.User, issued *IssuedCode) {
	event := notify.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Email:      user.Email,
		Code:       issued.Code,
		BusinessID: user.BusinessID,
		ExpiresAt:  issued.ExpiresAt,
		OccurredAt: s.now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.log.Error("failed to send notification",
			logger.CtxField(ctx),
			logger.String("event_id", event.ID),
			logger.String("type", string(eventType)),
			logger.Error(err),
		)
	}
}

func (s *Service) newSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.BusinessID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		BusinessID:  user.BusinessID,
		User:        user,
	}, nil
}

func (s *Service) rejectLogin(ctx context.Context, reason string) error {
	s.log.Warn("login rejected", logger.CtxField(ctx), logger.String("reason", reason))
	return pkgErrors.New(pkgErrors.ErrUnauthorized, msgInvalidCredentials)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *Service) internal(ctx context.Context, flow string, err error) error {
	s.log.Error("auth flow failed",
		logger.CtxField(ctx),
		logger.String("flow", flow),
		logger.Error(err),
	)
	return pkgErrors.Wrap(err, pkgErrors.ErrInternal, "internal error")
}

func (s *Service) observe(flow string, errp *error) {
	outcome := "success"
	if *errp != nil {
		outcome = strings.ToLower(string(pkgErrors.FromError(*errp).Code))
	}
	s.metrics.ObserveFlow(flow, outcome)
}

func accepted() *Accepted {
	return &Accepted{Status: "accepted", Message: msgAccepted}
}
