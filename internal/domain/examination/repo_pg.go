package examination

import (
	"context"
	"errors"

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

// NewRepoPG returns a Postgres-backed exam record repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, appointment_id, patient_id, doctor_id, visit_date, symptoms,
	temperature, pulse, bp_systolic, bp_diastolic, weight, height,
	diagnosis, conclusion, status, created_at, updated_at`

func scanRecord(row pgx.Row) (*ExamRecord, error) {
	var rec ExamRecord
	err := row.Scan(&rec.ID, &rec.AppointmentID, &rec.PatientID, &rec.DoctorID,
		&rec.VisitDate, &rec.Symptoms,
		&rec.Vitals.Temperature, &rec.Vitals.Pulse,
		&rec.Vitals.BloodPressureSys, &rec.Vitals.BloodPressureDia,
		&rec.Vitals.Weight, &rec.Vitals.Height,
		&rec.Diagnosis, &rec.Conclusion, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *ExamRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO exam_record (id, appointment_id, patient_id, doctor_id, visit_date, symptoms,
			temperature, pulse, bp_systolic, bp_diastolic, weight, height,
			diagnosis, conclusion, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		rec.ID, rec.AppointmentID, rec.PatientID, rec.DoctorID, rec.VisitDate, rec.Symptoms,
		rec.Vitals.Temperature, rec.Vitals.Pulse,
		rec.Vitals.BloodPressureSys, rec.Vitals.BloodPressureDia,
		rec.Vitals.Weight, rec.Vitals.Height,
		rec.Diagnosis, rec.Conclusion, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *repoPG) getOne(ctx context.Context, query string, arg interface{}) (*ExamRecord, error) {
	row := r.conn(ctx).QueryRow(ctx, query, arg)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ExamRecord, error) {
	return r.getOne(ctx, `SELECT `+recordCols+` FROM exam_record WHERE id = $1`, id)
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*ExamRecord, error) {
	return r.getOne(ctx, `SELECT `+recordCols+` FROM exam_record WHERE appointment_id = $1`, appointmentID)
}

func (r *repoPG) Update(ctx context.Context, rec *ExamRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE exam_record
		SET visit_date = $2, symptoms = $3,
		    temperature = $4, pulse = $5, bp_systolic = $6, bp_diastolic = $7,
		    weight = $8, height = $9,
		    diagnosis = $10, conclusion = $11, status = $12, updated_at = $13
		WHERE id = $1`,
		rec.ID, rec.VisitDate, rec.Symptoms,
		rec.Vitals.Temperature, rec.Vitals.Pulse,
		rec.Vitals.BloodPressureSys, rec.Vitals.BloodPressureDia,
		rec.Vitals.Weight, rec.Vitals.Height,
		rec.Diagnosis, rec.Conclusion, rec.Status, rec.UpdatedAt)
	return err
}

func (r *repoPG) list(ctx context.Context, query string, arg interface{}) ([]*ExamRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ExamRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ExamRecord, error) {
	return r.list(ctx, `
		SELECT `+recordCols+` FROM exam_record
		WHERE patient_id = $1
		ORDER BY visit_date DESC`, patientID)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*ExamRecord, error) {
	return r.list(ctx, `
		SELECT `+recordCols+` FROM exam_record
		WHERE doctor_id = $1
		ORDER BY visit_date DESC`, doctorID)
}
