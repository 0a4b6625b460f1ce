package sqlxdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/model"
)

const (
	profileColumns   = "id, full_name, avatar_url, created_at, updated_at"
	roleGrantColumns = "id, principal_id, role, created_at"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateProfile(ctx context.Context, prof model.Profile) (model.Profile, error) {
	var created model.Profile
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO profiles (id, full_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+profileColumns,
		prof.ID, prof.FullName, prof.AvatarURL, prof.CreatedAt, prof.UpdatedAt)
	return created, trapErr(err, "inserting profile")
}

func (repo *accountRepository) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	if !validID(id) {
		return model.Profile{}, core.ErrNotFound
	}
	var prof model.Profile
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &prof,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return prof, trapErr(err, "selecting profile")
}

// UpdateProfile saves the full name and avatar; updated_at is set by the database.
func (repo *accountRepository) UpdateProfile(ctx context.Context, prof model.Profile) (model.Profile, error) {
	if !validID(prof.ID) {
		return model.Profile{}, core.ErrNotFound
	}
	var updated model.Profile
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &updated,
		`UPDATE profiles SET full_name = $2, avatar_url = $3 WHERE id = $1
		RETURNING `+profileColumns,
		prof.ID, prof.FullName, prof.AvatarURL)
	return updated, trapErr(err, "updating profile")
}

func (repo *accountRepository) CreateRoleGrant(ctx context.Context, grant model.RoleGrant) (model.RoleGrant, error) {
	var created model.RoleGrant
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO role_grants (id, principal_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+roleGrantColumns,
		grant.ID, grant.PrincipalID, grant.Role, grant.CreatedAt)
	return created, trapErr(err, "inserting role grant")
}

func (repo *accountRepository) GetRoleGrant(ctx context.Context, id string) (model.RoleGrant, error) {
	if !validID(id) {
		return model.RoleGrant{}, core.ErrNotFound
	}
	var grant model.RoleGrant
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &grant,
		`SELECT `+roleGrantColumns+` FROM role_grants WHERE id = $1`, id)
	return grant, trapErr(err, "selecting role grant")
}

func (repo *accountRepository) QueryRoleGrants(ctx context.Context, filter account.RoleGrantFilter) ([]model.RoleGrant, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.PrincipalID != "" {
		if !validID(filter.PrincipalID) {
			return []model.RoleGrant{}, nil
		}
		args = append(args, filter.PrincipalID)
		where = append(where, "principal_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, "role = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + roleGrantColumns + ` FROM role_grants`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	grants := make([]model.RoleGrant, 0)
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &grants, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting role grants")
	}
	return grants, nil
}

func (repo *accountRepository) DeleteRoleGrant(ctx context.Context, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM role_grants WHERE id = $1`, id)
	if err != nil {
		return trapErr(err, "deleting role grant")
	}
	return mustAffect(res, "deleting role grant")
}
