package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/locvx/tour-booking-auth/internal/authz"
	"github.com/locvx/tour-booking-auth/internal/model"
)

// RoleRepo persists roles, the permission catalogue and the
// role_permission grants.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByName fetches a role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description FROM roles WHERE name=? LIMIT 1",
		name).Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Role{}, ErrRoleNotFound
		}
		return model.Role{}, err
	}
	return role, nil
}

// ListPermissions returns the full permission catalogue.
func (r *RoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,description FROM permissions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GrantsForRole returns the permission names granted to a role through
// the role_permission join.  This is the explicit query replacing any
// framework-level eager loading.
func (r *RoleRepo) GrantsForRole(ctx context.Context, roleID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.name FROM role_permission rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id=? ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		grants = append(grants, name)
	}
	return grants, rows.Err()
}

// Sync applies a declarative rule set to the role_permission table.
// For each rule's role the current grants are deleted and the planned
// set is re-inserted inside one transaction, so the procedure is
// idempotent and safe to re-run.  Roles named by a rule must exist;
// a missing role aborts the sync.
func (r *RoleRepo) Sync(ctx context.Context, rules []authz.Rule) error {
	perms, err := r.ListPermissions(ctx)
	if err != nil {
		return err
	}
	permID := make(map[string]uint64, len(perms))
	for _, p := range perms {
		permID[p.Name] = p.ID
	}
	plan := authz.PlanGrants(rules, perms)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rule := range rules {
		var roleID uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", rule.Role).Scan(&roleID)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("sync role %q: %w", rule.Role, ErrRoleNotFound)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM role_permission WHERE role_id=?", roleID); err != nil {
			return err
		}
		for _, name := range plan[rule.Role] {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO role_permission (role_id, permission_id) VALUES (?,?)",
				roleID, permID[name]); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
