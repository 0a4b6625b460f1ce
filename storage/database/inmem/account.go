package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/model"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateProfile(ctx context.Context, prof model.Profile) (model.Profile, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.profiles[prof.ID]; ok {
			return violation(profilesPKey)
		}
		t.profiles[prof.ID] = prof
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	return prof, nil
}

func (repo *accountRepository) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	var prof model.Profile
	err := repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if prof, ok = t.profiles[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return prof, err
}

func (repo *accountRepository) UpdateProfile(ctx context.Context, prof model.Profile) (model.Profile, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		orig, ok := t.profiles[prof.ID]
		if !ok {
			return core.ErrNotFound
		}
		prof.CreatedAt = orig.CreatedAt
		prof.UpdatedAt = repo.db.nowFunc()
		t.profiles[prof.ID] = prof
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	return prof, nil
}

func (repo *accountRepository) CreateRoleGrant(ctx context.Context, grant model.RoleGrant) (model.RoleGrant, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		if !grant.Role.Valid() {
			return violation(roleGrantsRoleCheck)
		}
		if _, ok := t.roleGrants[grant.ID]; ok {
			return violation(roleGrantsPKey)
		}
		for _, g := range t.roleGrants {
			if g.PrincipalID == grant.PrincipalID && g.Role == grant.Role {
				return violation(roleGrantsUniqueKey)
			}
		}
		t.roleGrants[grant.ID] = grant
		return nil
	})
	if err != nil {
		return model.RoleGrant{}, err
	}
	return grant, nil
}

func (repo *accountRepository) GetRoleGrant(ctx context.Context, id string) (model.RoleGrant, error) {
	var grant model.RoleGrant
	err := repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if grant, ok = t.roleGrants[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return grant, err
}

func (repo *accountRepository) QueryRoleGrants(ctx context.Context, filter account.RoleGrantFilter) ([]model.RoleGrant, error) {
	grants := make([]model.RoleGrant, 0)
	_ = repo.db.read(ctx, func(t *tables) error {
		for _, g := range t.roleGrants {
			if filter.PrincipalID != "" && g.PrincipalID != filter.PrincipalID {
				continue
			}
			if filter.Role != "" && g.Role != filter.Role {
				continue
			}
			grants = append(grants, g)
		}
		return nil
	})
	sort.Slice(grants, func(i, j int) bool {
		if grants[i].CreatedAt.Equal(grants[j].CreatedAt) {
			return grants[i].ID < grants[j].ID
		}
		return grants[i].CreatedAt.Before(grants[j].CreatedAt)
	})
	return grants, nil
}

func (repo *accountRepository) DeleteRoleGrant(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.roleGrants[id]; !ok {
			return core.ErrNotFound
		}
		delete(t.roleGrants, id)
		return nil
	})
}
