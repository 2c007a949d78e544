package repository

import (
	"context"

	"github.com/hray3182/Nuhyi/internal/database"
	"github.com/hray3182/Nuhyi/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate registers the Telegram user on first contact and keeps the
// user name current afterwards.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID int64, userName string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO "user" (user_id, user_name) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = EXCLUDED.user_name
		 RETURNING user_id, user_name`,
		userID, userName,
	).Scan(&user.UserID, &user.UserName)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Ensure creates the user row if missing without touching the stored name.
func (r *UserRepository) Ensure(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO "user" (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	return err
}
