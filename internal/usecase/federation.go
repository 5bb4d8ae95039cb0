package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
	"github.com/azrrael22/horse-reserved/internal/core/port"
	"github.com/azrrael22/horse-reserved/internal/infra/logger"
	"github.com/azrrael22/horse-reserved/internal/infra/security"
	"github.com/azrrael22/horse-reserved/internal/repository"
)

// ProviderGoogle is the only federated identity provider currently integrated.
const ProviderGoogle = "google"

// FederationService reconciles identities asserted by an external provider
// against local accounts and signs them in.
type FederationService struct {
	users  port.UserRepository
	signer *security.TokenSigner
	logger *zap.Logger
}

// NewFederationService constructs a FederationService.
func NewFederationService(users port.UserRepository, signer *security.TokenSigner, log *zap.Logger) *FederationService {
	if log == nil {
		log = zap.NewNop()
	}

	return &FederationService{
		users:  users,
		signer: signer,
		logger: log,
	}
}

// Reconcile matches the asserted identity to a local account, creating one on
// first contact, and issues an access token. Matching is by email: a
// federated login never collides with password registration, it adopts the
// existing account and refreshes its display names.
func (s *FederationService) Reconcile(ctx context.Context, provider string, identity domain.ExternalIdentity) (*AuthResult, error) {
	if strings.TrimSpace(identity.Email) == "" {
		return nil, ErrFederatedIdentityIncomplete
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider != ProviderGoogle {
		return nil, ErrUnsupportedProvider
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		user, err = s.refresh(ctx, user, identity)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.provision(ctx, provider, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.Enabled() {
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.signer.Issue(user.ID, user.AuthorityLabel())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// refresh updates the display names from the asserted identity; all other
// local attributes, the credential included, are left untouched.
func (s *FederationService) refresh(ctx context.Context, user *domain.User, identity domain.ExternalIdentity) (*domain.User, error) {
	first, last, second := splitFullName(identity.FullName)
	if first == "" {
		return user, nil
	}

	if user.FirstName == first && user.LastName == last && user.SecondLastName == second {
		return user, nil
	}

	user.FirstName = first
	user.LastName = last
	user.SecondLastName = second

	if err := s.users.Update(ctx, *user); err != nil {
		return nil, fmt.Errorf("refresh user names: %w", err)
	}

	s.logger.Info("federated profile refreshed", zap.Int64("user_id", user.ID))

	return user, nil
}

// provision creates a local account for a first-time federated login. The
// account carries no password and a placeholder document, so it can never
// authenticate locally until a document and credential are set up.
func (s *FederationService) provision(ctx context.Context, provider string, identity domain.ExternalIdentity) (*domain.User, error) {
	first, last, second := splitFullName(identity.FullName)

	user := domain.User{
		FirstName:      first,
		LastName:       last,
		SecondLastName: second,
		DocumentType:   domain.DocumentCedula,
		DocumentNumber: fmt.Sprintf("OAUTH2-%s-%s", strings.ToUpper(provider), identity.ExternalID),
		Email:          identity.Email,
		PasswordHash:   "",
		Role:           domain.DefaultRole,
		IsActive:       true,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost a race with a concurrent first login; adopt the winner.
			existing, lookupErr := s.users.GetByEmail(ctx, identity.Email)
			if lookupErr != nil {
				return nil, fmt.Errorf("lookup user after duplicate: %w", lookupErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("provision federated user: %w", err)
	}

	s.logger.Info("federated user provisioned",
		zap.Int64("user_id", created.ID),
		zap.String("email", logger.MaskEmail(created.Email)),
	)

	return created, nil
}

// splitFullName maps a provider's single display name onto the local
// first/last/second-last structure: one word is a first name, two words add a
// last name, and with three or more the first word is the given name and the
// final two words form the compound family name. Middle words are dropped; a
// multi-word given name is misparsed and that behavior is intentional.
func splitFullName(fullName string) (first, last, second string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	default:
		n := len(parts)
		return parts[0], parts[n-2], parts[n-1]
	}
}
