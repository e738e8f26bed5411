package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/frontdesk/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed appointment repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, service_id, scheduled_start, scheduled_end,
	status, reason, notes, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ServiceID, &a.ScheduledStart,
		&a.ScheduledEnd, &a.Status, &a.Reason, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, service_id,
			scheduled_start, scheduled_end, status, reason, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PatientID, a.DoctorID, a.ServiceID, a.ScheduledStart, a.ScheduledEnd,
		a.Status, a.Reason, a.Notes, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id)
	a, err := scanAppt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment
		SET service_id = $2, scheduled_start = $3, scheduled_end = $4, status = $5,
		    reason = $6, notes = $7, updated_at = $8
		WHERE id = $1`,
		a.ID, a.ServiceID, a.ScheduledStart, a.ScheduledEnd, a.Status,
		a.Reason, a.Notes, a.UpdatedAt)
	return err
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE patient_id = $1
		ORDER BY scheduled_start DESC`, patientID)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE doctor_id = $1
		ORDER BY scheduled_start DESC`, doctorID)
}

func (r *repoPG) ListByDay(ctx context.Context, day time.Time) ([]*Appointment, error) {
	start := day.Truncate(24 * time.Hour)
	return r.list(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE scheduled_start >= $1 AND scheduled_start < $2
		ORDER BY scheduled_start ASC`, start, start.Add(24*time.Hour))
}

func (r *repoPG) CountOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE doctor_id = $1
		  AND status NOT IN ('cancelled', 'no_show')
		  AND id <> $4
		  AND scheduled_start < $3
		  AND scheduled_end > $2`,
		doctorID, start, end, excludeID).Scan(&n)
	return n, err
}
