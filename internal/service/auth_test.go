package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/learn-connect/internal/utils"
)

type harness struct {
	svc    *AuthService
	store  *memStore
	gw     *recordingGateway
	tokens *utils.TokenIssuer
	now    time.Time
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	h := &harness{
		store:  newMemStore(),
		gw:     &recordingGateway{},
		tokens: utils.NewTokenIssuer("test-secret", time.Hour),
		now:    time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		logs:   logs,
	}
	h.svc = NewAuthService(h.store, h.gw, h.tokens, zap.New(core), time.Second)
	h.svc.now = func() time.Time { return h.now }
	h.svc.newCode = sequenceCodes("111111", "222222", "333333")
	return h
}

func (h *harness) register(t *testing.T) RegisterResult {
	t.Helper()
	res, err := h.svc.Register(context.Background(), RegisterInput{
		FullName: "Ada", Email: "ada@x.com", Password: "pw123", Phone: "555-1",
	})
	require.NoError(t, err)
	return res
}

func TestRegisterChannelUp(t *testing.T) {
	h := newHarness(t)
	res := h.register(t)

	assert.True(t, res.EmailSent)
	assert.False(t, res.User.Verified)
	require.NotNil(t, res.User.Pending)
	assert.Equal(t, "111111", res.User.Pending.Code)
	assert.Equal(t, h.now.Add(10*time.Minute), res.User.Pending.ExpiresAt)

	stored := h.store.user("ada@x.com")
	assert.False(t, stored.Verified)
	require.NotNil(t, stored.Pending)
	assert.Equal(t, "111111", stored.Pending.Code)

	sent := h.gw.last()
	assert.Equal(t, "ada@x.com", sent.To)
	assert.Equal(t, "Ada", sent.FullName)
	assert.Equal(t, "111111", sent.Code)
	assert.Equal(t, SubjectRegister, sent.Subject)

	for _, e := range h.logs.All() {
		for _, f := range e.Context {
			assert.NotEqual(t, "111111", f.String, "codes are never logged")
			assert.NotEqual(t, "pw123", f.String, "passwords are never logged")
		}
	}
}

func TestRegisterChannelDownAutoVerifies(t *testing.T) {
	h := newHarness(t)
	h.gw.err = errors.New("smtp unreachable")

	res := h.register(t)
	assert.False(t, res.EmailSent)
	assert.True(t, res.User.Verified)
	assert.Nil(t, res.User.Pending)

	stored := h.store.user("ada@x.com")
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.Pending)
	assert.Equal(t, 1, h.logs.FilterMessage("verification email failed, auto-verifying account").Len())
}

func TestRegisterNilGatewayAutoVerifies(t *testing.T) {
	h := newHarness(t)
	h.svc.gateway = nil
	res := h.register(t)
	assert.False(t, res.EmailSent)
	assert.True(t, res.User.Verified)
}

func TestRegisterGatewayTimeout(t *testing.T) {
	h := newHarness(t)
	h.svc.gateway = blockingGateway{}
	h.svc.mailTimeout = 20 * time.Millisecond

	res := h.register(t)
	assert.False(t, res.EmailSent)
	assert.True(t, res.User.Verified)
}

func TestRegisterAutoVerifySaveFails(t *testing.T) {
	h := newHarness(t)
	h.gw.err = errors.New("down")
	h.store.saveErr = errors.New("db gone")

	_, err := h.svc.Register(context.Background(), RegisterInput{FullName: "Ada", Email: "ada@x.com", Password: "pw", Phone: "1"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "db gone")
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	cases := map[string]RegisterInput{
		"no name":     {Email: "a@x.com", Password: "pw", Phone: "1"},
		"no email":    {FullName: "A", Password: "pw", Phone: "1"},
		"blank email": {FullName: "A", Email: "   ", Password: "pw", Phone: "1"},
		"no password": {FullName: "A", Email: "a@x.com", Phone: "1"},
		"no phone":    {FullName: "A", Email: "a@x.com", Password: "pw"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, h.gw.sent)
}

func TestRegisterDuplicate(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	_, err := h.svc.Register(context.Background(), RegisterInput{
		FullName: "Other", Email: "  ADA@x.com", Password: "pw", Phone: "2",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	h := newHarness(t)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, dupes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Register(context.Background(), RegisterInput{FullName: "A", Email: "race@x.com", Password: "pw", Phone: "1"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				dupes++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, dupes)
}

func TestRegisterLookupError(t *testing.T) {
	h := newHarness(t)
	h.store.getErr = errors.New("conn reset")
	_, err := h.svc.Register(context.Background(), RegisterInput{FullName: "A", Email: "a@x.com", Password: "pw", Phone: "1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestVerifyEmailSuccessOnce(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t)

	res, err := h.svc.VerifyEmail(context.Background(), "ada@x.com", "111111")
	require.NoError(t, err)
	assert.True(t, res.User.Verified)
	assert.Nil(t, res.User.Pending)

	id, email, err := h.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)
	assert.Equal(t, "ada@x.com", email)

	stored := h.store.user("ada@x.com")
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.Pending)

	_, err = h.svc.VerifyEmail(context.Background(), "ada@x.com", "111111")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyEmailFailures(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	_, err := h.svc.VerifyEmail(ctx, "", "111111")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.VerifyEmail(ctx, "nobody@x.com", "111111")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "999999")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", " 111111")
	assert.ErrorIs(t, err, ErrInvalidCode, "no whitespace normalization")

	assert.False(t, h.store.user("ada@x.com").Verified)
}

func TestVerifyEmailExpiry(t *testing.T) {
	t.Run("boundary instant still valid", func(t *testing.T) {
		h := newHarness(t)
		h.register(t)
		h.now = h.now.Add(10 * time.Minute)
		_, err := h.svc.VerifyEmail(context.Background(), "ada@x.com", "111111")
		assert.NoError(t, err)
	})

	t.Run("past expiry fails", func(t *testing.T) {
		h := newHarness(t)
		h.register(t)
		h.now = h.now.Add(10*time.Minute + time.Millisecond)
		_, err := h.svc.VerifyEmail(context.Background(), "ada@x.com", "111111")
		assert.ErrorIs(t, err, ErrExpiredCode)
		assert.False(t, h.store.user("ada@x.com").Verified)
	})

	t.Run("mismatch reported before expiry", func(t *testing.T) {
		h := newHarness(t)
		h.register(t)
		h.now = h.now.Add(time.Hour)
		_, err := h.svc.VerifyEmail(context.Background(), "ada@x.com", "000000")
		assert.ErrorIs(t, err, ErrInvalidCode)
	})
}

func TestVerifyEmailAutoVerifiedAccount(t *testing.T) {
	h := newHarness(t)
	h.gw.err = errors.New("down")
	h.register(t)
	_, err := h.svc.VerifyEmail(context.Background(), "ada@x.com", "111111")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyEmailTokenFailure(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	h.svc.tokens = failingMinter{}
	_, err := h.svc.VerifyEmail(context.Background(), "ada@x.com", "111111")
	assert.ErrorContains(t, err, "issue token")
}

func TestResendReplacesCode(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	res, err := h.svc.ResendCode(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
	assert.Equal(t, "222222", h.gw.last().Code)
	assert.Equal(t, SubjectResend, h.gw.last().Subject)

	res, err = h.svc.ResendCode(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
	assert.Equal(t, "333333", h.store.user("ada@x.com").Pending.Code)

	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "111111")
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "222222")
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "333333")
	assert.NoError(t, err)
}

func TestResendRefreshesExpiry(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	h.now = h.now.Add(9 * time.Minute)
	_, err := h.svc.ResendCode(context.Background(), "ada@x.com")
	require.NoError(t, err)

	h.now = h.now.Add(9 * time.Minute)
	_, err = h.svc.VerifyEmail(context.Background(), "ada@x.com", "222222")
	assert.NoError(t, err)
}

func TestResendChannelDownAutoVerifies(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	h.gw.err = errors.New("down")

	res, err := h.svc.ResendCode(context.Background(), "ada@x.com")
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	stored := h.store.user("ada@x.com")
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.Pending)
}

func TestResendFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ResendCode(ctx, " ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.svc.ResendCode(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	h.register(t)
	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "111111")
	require.NoError(t, err)
	_, err = h.svc.ResendCode(ctx, "ada@x.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t)
	ctx := context.Background()

	_, err := h.svc.Login(ctx, "ada@x.com", "pw123")
	assert.ErrorIs(t, err, ErrNotVerified, "correct password before verification")

	_, err = h.svc.Login(ctx, "ada@x.com", "wrong")
	assert.ErrorIs(t, err, ErrNotVerified, "verified flag is checked before the password")

	_, err = h.svc.VerifyEmail(ctx, "ada@x.com", "111111")
	require.NoError(t, err)

	res, err := h.svc.Login(ctx, "ADA@x.com ", "pw123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	id, _, err := h.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)

	_, err = h.svc.Login(ctx, "ada@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailCollapses(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Login(context.Background(), "ghost@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, h.store.burned, "unknown email still pays for a hash comparison")
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.svc.Login(context.Background(), "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewAuthServicePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(nil, nil, utils.NewTokenIssuer("k", time.Hour), nil, 0) })
	assert.Panics(t, func() { NewAuthService(newMemStore(), nil, nil, nil, 0) })
}
