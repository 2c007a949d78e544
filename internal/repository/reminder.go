package repository

import (
	"context"
	"errors"

	"github.com/hray3182/Nuhyi/internal/database"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/jackc/pgx/v5"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	var clock string
	if err := row.Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Text, &clock, &reminder.CreatedAt); err != nil {
		return nil, err
	}
	// TIME renders as HH:MM:SS
	if len(clock) > 5 {
		clock = clock[:5]
	}
	ct, err := models.ParseClockTime(clock)
	if err != nil {
		return nil, err
	}
	reminder.Time = ct
	return reminder, nil
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, text, remind_time)
		 VALUES ($1, $2, $3::time)
		 RETURNING reminder_id, created_at`,
		reminder.UserID, reminder.Text, reminder.Time.String(),
	).Scan(&reminder.ReminderID, &reminder.CreatedAt)
}

// GetByUserID lists reminders in insertion order.
func (r *ReminderRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, text, remind_time::text, created_at
		 FROM reminders WHERE user_id = $1 ORDER BY reminder_id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func (r *ReminderRepository) GetByID(ctx context.Context, reminderID int, userID int64) (*models.Reminder, error) {
	reminder, err := scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT reminder_id, user_id, text, remind_time::text, created_at
		 FROM reminders WHERE reminder_id = $1 AND user_id = $2`,
		reminderID, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return reminder, err
}

func (r *ReminderRepository) Delete(ctx context.Context, reminderID int, userID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE reminder_id = $1 AND user_id = $2`,
		reminderID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
