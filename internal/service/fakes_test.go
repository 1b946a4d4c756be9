package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/learn-connect/internal/model"
	"github.com/iliyamo/learn-connect/internal/repository"
	"github.com/iliyamo/learn-connect/internal/utils"
)

// memStore is an in-memory UserStore keeping plaintext passwords hashed
// with a trivial marker so tests stay fast.
type memStore struct {
	mu      sync.Mutex
	byEmail map[string]model.User
	burned  int
	saves   int
	saveErr error
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{byEmail: map[string]model.User{}}
}

func (m *memStore) Create(_ context.Context, in repository.NewUser) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := repository.NormalizeEmail(in.Email)
	if _, ok := m.byEmail[email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	u := model.User{
		ID:           uuid.NewString(),
		FullName:     in.FullName,
		Email:        email,
		PasswordHash: "hashed:" + in.Password,
		Phone:        in.Phone,
		Verified:     in.Verified,
		Pending:      in.Pending,
	}
	m.byEmail[email] = u
	return u, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return model.User{}, m.getErr
	}
	u, ok := m.byEmail[repository.NormalizeEmail(email)]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return model.User{}, m.getErr
	}
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memStore) Save(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return model.User{}, m.saveErr
	}
	if u.Verified && u.Pending != nil {
		return model.User{}, repository.ErrPendingWhileVerified
	}
	m.saves++
	u.UpdatedAt = time.Now()
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memStore) VerifyCredential(u model.User, plain string) bool {
	return u.PasswordHash == "hashed:"+plain
}

func (m *memStore) BurnCredentialCheck(string) bool {
	m.mu.Lock()
	m.burned++
	m.mu.Unlock()
	return false
}

func (m *memStore) user(email string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[email]
}

// recordingGateway records deliveries and fails on demand.
type recordingGateway struct {
	mu   sync.Mutex
	sent []VerificationEmail
	err  error
}

func (g *recordingGateway) Deliver(_ context.Context, msg VerificationEmail) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, msg)
	return nil
}

func (g *recordingGateway) last() VerificationEmail {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent[len(g.sent)-1]
}

// blockingGateway waits for the context to end.
type blockingGateway struct{}

func (blockingGateway) Deliver(ctx context.Context, _ VerificationEmail) error {
	<-ctx.Done()
	return ctx.Err()
}

type failingMinter struct{}

func (failingMinter) Issue(string, string) (string, error) { return "", errors.New("sign failed") }

// sequenceCodes hands out predictable codes.
func sequenceCodes(codes ...string) func(time.Time) (utils.VerificationCode, error) {
	var (
		mu sync.Mutex
		i  int
	)
	return func(now time.Time) (utils.VerificationCode, error) {
		mu.Lock()
		c := codes[i%len(codes)]
		i++
		mu.Unlock()
		return utils.VerificationCode{Code: c, ExpiresAt: now.Add(utils.VerificationCodeTTL)}, nil
	}
}
