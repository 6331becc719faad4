package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
	byRole   map[model.AccountRole]model.Account
}

// NewService creates a Service from a slice of accounts.
// When two accounts share a role the first one wins; Validate reports the conflict.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	byRole := make(map[model.AccountRole]model.Account)
	for _, a := range accounts {
		byID[a.ID] = a
		if a.Role == model.RoleNone {
			continue
		}
		if _, taken := byRole[a.Role]; !taken {
			byRole[a.Role] = a
		}
	}
	return &Service{accounts: accounts, byID: byID, byRole: byRole}
}

// Load reads chart-of-accounts.csv from a repo root and returns a validated Service.
func Load(repoRoot string) (*Service, error) {
	path := filepath.Join(repoRoot, "accounts", "chart-of-accounts.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	svc := NewService(accts)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	return svc, nil
}

// Validate checks that ids are unique and each role is held by at most one
// account of a compatible type.
func (s *Service) Validate() error {
	seenID := make(map[int]bool, len(s.accounts))
	seenRole := make(map[model.AccountRole]int)
	for _, a := range s.accounts {
		if seenID[a.ID] {
			return apperrors.ConfigurationError{Setting: "chart_of_accounts", Description: fmt.Sprintf("account %d listed twice", a.ID)}
		}
		seenID[a.ID] = true

		if a.Role == model.RoleNone {
			continue
		}
		if prev, ok := seenRole[a.Role]; ok {
			return apperrors.ConfigurationError{Setting: string(a.Role), Description: fmt.Sprintf("role held by both %d and %d", prev, a.ID)}
		}
		seenRole[a.Role] = a.ID

		if want, ok := roleTypes[a.Role]; ok && a.Type != want {
			return apperrors.ConfigurationError{Setting: string(a.Role), Description: fmt.Sprintf("account %d is %s, want %s", a.ID, a.Type, want)}
		}
	}
	return nil
}

var roleTypes = map[model.AccountRole]model.AccountType{
	model.RolePrimaryRevenue:   model.AccountTypeRevenue,
	model.RoleCOGS:             model.AccountTypeExpense,
	model.RoleRetainedEarnings: model.AccountTypeEquity,
	model.RoleBank:             model.AccountTypeAsset,
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// ByRole returns the account holding role, if any.
func (s *Service) ByRole(role model.AccountRole) (model.Account, bool) {
	a, ok := s.byRole[role]
	return a, ok
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	path := filepath.Join(dir, "chart-of-accounts.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
