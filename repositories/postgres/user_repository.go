package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
)

const userColumns = `id, email, COALESCE(name, ''), password_hash, role, school_id, active, created_at, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, filter rbac.TenantFilter, user *models.User) error {
	if user.SchoolID.Valid {
		if err := checkWriteScope(filter, user.SchoolID.UUID); err != nil {
			return err
		}
	} else if !filter.Unrestricted() {
		if !filter.Valid() {
			return repositories.ErrInvalidFilter
		}
		return fmt.Errorf("%w: user without school", repositories.ErrOutOfScope)
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, role, school_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullString(user.Name),
		user.PasswordHash,
		user.Role,
		user.SchoolID,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "create", "user")
	}

	r.logger.Debug("user created",
		zap.String("id", user.ID.String()),
		zap.String("role", user.Role.String()))
	return nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	executor := GetExecutor(ctx, r.db)
	user, err := scanUser(executor.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, translateError(err, "get", "user")
	}
	return user, nil
}

// GetByID retrieves a user by ID within filter
func (r *UserRepository) GetByID(ctx context.Context, filter rbac.TenantFilter, id uuid.UUID) (*models.User, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 2)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1` + pred

	executor := GetExecutor(ctx, r.db)
	user, err := scanUser(executor.QueryRowContext(ctx, query, append([]interface{}{id}, args...)...))
	if err != nil {
		return nil, translateError(err, "get", "user")
	}
	return user, nil
}

// List retrieves the users visible through filter
func (r *UserRepository) List(ctx context.Context, filter rbac.TenantFilter, limit, offset int) ([]*models.User, error) {
	pred, args, err := tenantPredicate(filter, "school_id", 1)
	if err != nil {
		return nil, err
	}
	page, pageArgs := pagination(limit, offset, len(args)+1)

	query := `SELECT ` + userColumns + ` FROM users WHERE TRUE` + pred + ` ORDER BY created_at DESC` + page

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, append(args, pageArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.SchoolID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
