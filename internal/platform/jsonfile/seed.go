package jsonfile

import (
	"fmt"

	"taskpanel/internal/domain"
	"taskpanel/internal/service/auth"
)

// bootstrapAccounts is the fixed account set written to a fresh user
// registry. There is no registration endpoint; new deployments start
// from these.
var bootstrapAccounts = []struct {
	username string
	password string
	role     domain.Role
}{
	{"admin", "5550561", domain.RoleAdmin},
	{"user123", "user123", domain.RoleUser},
	{"user1", "password1", domain.RoleUser},
	{"user2", "password2", domain.RoleUser},
	{"user3", "password3", domain.RoleUser},
	{"user4", "password4", domain.RoleUser},
}

// DefaultSeedAccounts hashes the bootstrap passwords and returns the
// seed set for OpenUserStore.
func DefaultSeedAccounts(hasher auth.PasswordHasher) ([]SeedAccount, error) {
	seeds := make([]SeedAccount, 0, len(bootstrapAccounts))
	for _, acct := range bootstrapAccounts {
		hashed, err := hasher.Hash(acct.password)
		if err != nil {
			return nil, fmt.Errorf("hash bootstrap password for %q: %w", acct.username, err)
		}
		seeds = append(seeds, SeedAccount{
			Username:       acct.username,
			HashedPassword: hashed,
			Role:           acct.role,
		})
	}
	return seeds, nil
}
