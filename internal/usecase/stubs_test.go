package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
	"github.com/azrrael22/horse-reserved/internal/core/port"
	"github.com/azrrael22/horse-reserved/internal/infra/security"
	"github.com/azrrael22/horse-reserved/internal/repository"
)

type userRepoStub struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User

	updatedPasswordID   int64
	updatedPasswordHash string
	updateCalls         int
}

func newUserRepoStub(users ...domain.User) *userRepoStub {
	stub := &userRepoStub{users: make(map[int64]domain.User)}
	for _, u := range users {
		if u.ID > stub.nextID {
			stub.nextID = u.ID
		}
		stub.users[u.ID] = u
	}
	return stub
}

func (s *userRepoStub) Create(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, repository.ErrDuplicateEmail
		}
	}

	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user

	u := user
	return &u, nil
}

func (s *userRepoStub) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[id]; ok {
		u := user
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if err == repository.ErrNotFound {
		return false, nil
	}
	return false, err
}

func (s *userRepoStub) Update(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	s.users[user.ID] = user
	s.updateCalls++
	return nil
}

func (s *userRepoStub) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user

	s.updatedPasswordID = id
	s.updatedPasswordHash = passwordHash
	return nil
}

type resetTokenRepoStub struct {
	mu              sync.Mutex
	nextID          int64
	tokens          map[int64]domain.PasswordResetToken
	invalidateCalls []int64
}

func newResetTokenRepoStub() *resetTokenRepoStub {
	return &resetTokenRepoStub{tokens: make(map[int64]domain.PasswordResetToken)}
}

func (s *resetTokenRepoStub) Issue(_ context.Context, token domain.PasswordResetToken) (*domain.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateCalls = append(s.invalidateCalls, token.UserID)
	for id, existing := range s.tokens {
		if existing.UserID == token.UserID && !existing.Used {
			existing.Used = true
			s.tokens[id] = existing
		}
	}

	s.nextID++
	token.ID = s.nextID
	s.tokens[token.ID] = token

	t := token
	return &t, nil
}

func (s *resetTokenRepoStub) GetByValue(_ context.Context, value string) (*domain.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, token := range s.tokens {
		if token.Value == value {
			t := token
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *resetTokenRepoStub) MarkUsed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	token.Used = true
	s.tokens[id] = token
	return nil
}

type mailerStub struct {
	mu   sync.Mutex
	sent []port.PasswordResetMail
}

func (m *mailerStub) NotifyPasswordReset(_ context.Context, mail port.PasswordResetMail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
}

func (m *mailerStub) deliveries() []port.PasswordResetMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]port.PasswordResetMail, len(m.sent))
	copy(out, m.sent)
	return out
}

func newTestSigner(t *testing.T, ttl time.Duration) *security.TokenSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	signer, err := security.NewTokenSigner(security.NewStaticKeyProvider("test-key", key), "test-issuer", ttl)
	if err != nil {
		t.Fatalf("create token signer: %v", err)
	}
	return signer
}

func mustHash(t *testing.T, password string) string {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}
