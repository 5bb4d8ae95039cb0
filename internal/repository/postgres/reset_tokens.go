package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
	"github.com/azrrael22/horse-reserved/internal/repository"
)

var resetTokenColumns = []string{
	"id",
	"token",
	"user_id",
	"expires_at",
	"used",
	"created_at",
}

// ResetTokenRepository implements port.ResetTokenRepository using PostgreSQL.
type ResetTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewResetTokenRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewResetTokenRepository(exec pgExecutor) *ResetTokenRepository {
	return &ResetTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *ResetTokenRepository) WithTx(tx pgx.Tx) *ResetTokenRepository {
	if tx == nil {
		return r
	}
	return &ResetTokenRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Issue invalidates the user's unused tokens and inserts the new one inside
// a single transaction, so concurrent requests cannot leave two live tokens.
func (r *ResetTokenRepository) Issue(ctx context.Context, token domain.PasswordResetToken) (*domain.PasswordResetToken, error) {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reset token transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repo := r.WithTx(tx)
	if err := repo.InvalidateUnusedForUser(ctx, token.UserID); err != nil {
		return nil, err
	}

	created, err := repo.Create(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reset token transaction: %w", err)
	}

	return created, nil
}

// Create inserts a new reset token row and returns it with the generated
// identifier.
func (r *ResetTokenRepository) Create(ctx context.Context, token domain.PasswordResetToken) (*domain.PasswordResetToken, error) {
	stmt, args, err := r.builder.Insert("password_reset_tokens").
		Columns(
			"token",
			"user_id",
			"expires_at",
			"used",
			"created_at",
		).
		Values(
			token.Value,
			token.UserID,
			token.ExpiresAt,
			token.Used,
			token.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert reset token sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&token.ID); err != nil {
		return nil, fmt.Errorf("insert reset token: %w", err)
	}

	return &token, nil
}

// GetByValue retrieves a reset token by its opaque value.
func (r *ResetTokenRepository) GetByValue(ctx context.Context, value string) (*domain.PasswordResetToken, error) {
	stmt, args, err := r.builder.
		Select(resetTokenColumns...).
		From("password_reset_tokens").
		Where(squirrel.Eq{"token": value}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset token sql: %w", err)
	}

	var token domain.PasswordResetToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.Value,
		&token.UserID,
		&token.ExpiresAt,
		&token.Used,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}

	return &token, nil
}

// InvalidateUnusedForUser marks every unused token owned by the user as used
// in one statement.
func (r *ResetTokenRepository) InvalidateUnusedForUser(ctx context.Context, userID int64) error {
	stmt, args, err := r.builder.Update("password_reset_tokens").
		Set("used", true).
		Where(squirrel.Eq{"user_id": userID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build invalidate reset tokens sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("invalidate reset tokens: %w", err)
	}

	return nil
}

// MarkUsed flags the token as consumed.
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Update("password_reset_tokens").
		Set("used", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark reset token used sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
