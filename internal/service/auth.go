package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/learn-connect/internal/metrics"
	"github.com/iliyamo/learn-connect/internal/model"
	"github.com/iliyamo/learn-connect/internal/repository"
	"github.com/iliyamo/learn-connect/internal/utils"
)

// UserStore is the credential store the orchestrator runs against.
type UserStore interface {
	Create(ctx context.Context, in repository.NewUser) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Save(ctx context.Context, u model.User) (model.User, error)
	VerifyCredential(u model.User, plain string) bool
	BurnCredentialCheck(plain string) bool
}

// TokenMinter issues session tokens.
type TokenMinter interface {
	Issue(userID, email string) (string, error)
}

// Delivery is the outcome of one verification email attempt.
type Delivery int

const (
	// DeliverySent means the gateway accepted the message; the account stays pending.
	DeliverySent Delivery = iota
	// DeliveryAutoVerified means the gateway failed and the account was verified instead.
	DeliveryAutoVerified
)

// RegisterInput is the body of POST /register.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
}

// RegisterResult reports the created account and whether the code went out.
type RegisterResult struct {
	User      model.User
	EmailSent bool
}

// AuthResult is a session token plus the account it was issued for.
type AuthResult struct {
	Token string
	User  model.User
}

// ResendResult reports whether a fresh code was delivered.
type ResendResult struct {
	EmailSent bool
}

// AuthService drives accounts through unregistered -> pending verification
// -> verified. When the notification gateway fails, the account is verified
// on the spot instead of failing the request.
type AuthService struct {
	store       UserStore
	gateway     NotificationGateway
	tokens      TokenMinter
	log         *zap.Logger
	mailTimeout time.Duration
	now         func() time.Time
	newCode     func(now time.Time) (utils.VerificationCode, error)
}

// NewAuthService wires the orchestrator. A nil gateway makes every delivery
// fail, so accounts are verified at registration.
func NewAuthService(store UserStore, gateway NotificationGateway, tokens TokenMinter, log *zap.Logger, mailTimeout time.Duration) *AuthService {
	if store == nil || tokens == nil {
		panic("nil dependency passed to NewAuthService")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		store:       store,
		gateway:     gateway,
		tokens:      tokens,
		log:         log,
		mailTimeout: mailTimeout,
		now:         time.Now,
		newCode:     utils.NewVerificationCode,
	}
}

// Register creates a pending account and sends its first verification code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = repository.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.Phone == "" {
		return RegisterResult{}, ErrValidation
	}

	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return RegisterResult{}, ErrConflict
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return RegisterResult{}, fmt.Errorf("lookup user: %w", err)
	}

	vc, err := s.newCode(s.now())
	if err != nil {
		return RegisterResult{}, err
	}
	u, err := s.store.Create(ctx, repository.NewUser{
		FullName: in.FullName,
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
		Pending:  &model.PendingCode{Code: vc.Code, ExpiresAt: vc.ExpiresAt},
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return RegisterResult{}, ErrConflict
	}
	if err != nil {
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	u, d, err := s.deliver(ctx, u, SubjectRegister)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{User: u, EmailSent: d == DeliverySent}, nil
}

// VerifyEmail consumes the pending code of email and starts a session.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (AuthResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || code == "" {
		return AuthResult{}, ErrValidation
	}
	u, err := s.lookup(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if u.Verified {
		return AuthResult{}, ErrAlreadyVerified
	}
	// exact match, no normalization of the submitted code
	if u.Pending == nil || u.Pending.Code != code {
		return AuthResult{}, ErrInvalidCode
	}
	if u.Pending.Expired(s.now()) {
		return AuthResult{}, ErrExpiredCode
	}

	u, err = s.store.Save(ctx, u.MarkVerified())
	if err != nil {
		return AuthResult{}, fmt.Errorf("save user: %w", err)
	}
	return s.session(u)
}

// ResendCode replaces the pending code of email with a fresh one.
func (s *AuthService) ResendCode(ctx context.Context, email string) (ResendResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return ResendResult{}, ErrValidation
	}
	u, err := s.lookup(ctx, email)
	if err != nil {
		return ResendResult{}, err
	}
	if u.Verified {
		return ResendResult{}, ErrAlreadyVerified
	}

	vc, err := s.newCode(s.now())
	if err != nil {
		return ResendResult{}, err
	}
	u, err = s.store.Save(ctx, u.WithPendingCode(vc.Code, vc.ExpiresAt))
	if err != nil {
		return ResendResult{}, fmt.Errorf("save user: %w", err)
	}

	_, d, err := s.deliver(ctx, u, SubjectResend)
	if err != nil {
		return ResendResult{}, err
	}
	return ResendResult{EmailSent: d == DeliverySent}, nil
}

// Login checks, in order, that the account exists, that it is verified and
// that the password matches. An unverified account is refused even when the
// password is wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrValidation
	}
	res, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		metrics.RecordLogin(metrics.LoginSuccess)
	case errors.Is(err, ErrInvalidCredentials):
		metrics.RecordLogin(metrics.LoginInvalidCredentials)
	case errors.Is(err, ErrNotVerified):
		metrics.RecordLogin(metrics.LoginNotVerified)
	default:
		metrics.RecordLogin(metrics.LoginError)
	}
	return res, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.store.BurnCredentialCheck(password)
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.Verified {
		return AuthResult{}, ErrNotVerified
	}
	if !s.store.VerifyCredential(u, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *AuthService) lookup(ctx context.Context, email string) (model.User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *AuthService) session(u model.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, User: u}, nil
}

// deliver sends the pending code of u. On gateway failure the account is
// verified and persisted, and DeliveryAutoVerified is returned; only a
// failure to persist that transition is an error.
func (s *AuthService) deliver(ctx context.Context, u model.User, subject string) (model.User, Delivery, error) {
	err := ErrMailNotConfigured
	if u.Pending != nil {
		err = s.send(ctx, VerificationEmail{
			To:        u.Email,
			FullName:  u.FullName,
			Subject:   subject,
			Code:      u.Pending.Code,
			ExpiresAt: u.Pending.ExpiresAt,
		})
	}
	purpose := "register"
	if subject == SubjectResend {
		purpose = "resend"
	}
	if err == nil {
		metrics.RecordDelivery(purpose, metrics.OutcomeSent)
		s.log.Info("verification email sent", zap.String("user_id", u.ID), zap.String("email", u.Email))
		return u, DeliverySent, nil
	}

	s.log.Warn("verification email failed, auto-verifying account",
		zap.String("user_id", u.ID), zap.String("email", u.Email), zap.Error(err))
	metrics.RecordDelivery(purpose, metrics.OutcomeAutoVerified)
	saved, serr := s.store.Save(ctx, u.MarkVerified())
	if serr != nil {
		return model.User{}, DeliveryAutoVerified, fmt.Errorf("auto-verify user: %w", serr)
	}
	return saved, DeliveryAutoVerified, nil
}

func (s *AuthService) send(ctx context.Context, msg VerificationEmail) error {
	if s.gateway == nil {
		return ErrMailNotConfigured
	}
	if s.mailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.mailTimeout)
		defer cancel()
	}
	return s.gateway.Deliver(ctx, msg)
}
