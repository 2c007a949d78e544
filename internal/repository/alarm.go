package repository

import (
	"context"
	"sort"
	"time"

	"github.com/hray3182/Nuhyi/internal/alarm"
	"github.com/hray3182/Nuhyi/internal/database"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/jackc/pgx/v5"
)

// AlarmRepository persists pending alarms for the alarm runner.
type AlarmRepository struct {
	db *database.DB
}

func NewAlarmRepository(db *database.DB) *AlarmRepository {
	return &AlarmRepository{db: db}
}

const alarmColumns = `user_id, name, kind, prayer, reminder_id, fire_at, period_seconds, created_at`

func scanAlarms(rows pgx.Rows) ([]models.Alarm, error) {
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		var (
			a             models.Alarm
			kind, prayer  string
			periodSeconds int64
		)
		if err := rows.Scan(&a.UserID, &a.Name, &kind, &prayer, &a.ID.ReminderID,
			&a.FireAt, &periodSeconds, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ID.Kind = models.AlarmKind(kind)
		a.ID.Prayer = models.Prayer(prayer)
		a.Period = time.Duration(periodSeconds) * time.Second
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// Save inserts the alarm or replaces the pending alarm with the same name.
func (r *AlarmRepository) Save(ctx context.Context, a models.Alarm) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO alarms (user_id, name, kind, prayer, reminder_id, fire_at, period_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, name) DO UPDATE SET
		    fire_at = EXCLUDED.fire_at,
		    period_seconds = EXCLUDED.period_seconds,
		    created_at = NOW()`,
		a.UserID, a.ID.String(), string(a.ID.Kind), string(a.ID.Prayer), a.ID.ReminderID,
		a.FireAt, int64(a.Period/time.Second),
	)
	return err
}

func (r *AlarmRepository) Delete(ctx context.Context, userID int64, id models.AlarmID) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM alarms WHERE user_id = $1 AND name = $2`,
		userID, id.String(),
	)
	return err
}

func (r *AlarmRepository) ListByUser(ctx context.Context, userID int64) ([]models.Alarm, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE user_id = $1 ORDER BY fire_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanAlarms(rows)
}

// ListDue claims every due alarm by pushing its fire time out by the claim
// lease. Rows locked by another runner are skipped. The result carries the
// fire times the alarms were due at.
func (r *AlarmRepository) ListDue(ctx context.Context, now time.Time) ([]models.Alarm, error) {
	rows, err := r.db.Pool.Query(ctx,
		`WITH due AS (
		    SELECT user_id, name, fire_at FROM alarms
		    WHERE fire_at <= $1
		    FOR UPDATE SKIP LOCKED
		 )
		 UPDATE alarms a SET fire_at = $2
		 FROM due
		 WHERE a.user_id = due.user_id AND a.name = due.name
		 RETURNING a.user_id, a.name, a.kind, a.prayer, a.reminder_id, due.fire_at, a.period_seconds, a.created_at`,
		now, now.Add(alarm.ClaimLease),
	)
	if err != nil {
		return nil, err
	}
	alarms, err := scanAlarms(rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(alarms, func(i, j int) bool { return alarms[i].FireAt.Before(alarms[j].FireAt) })
	return alarms, nil
}
