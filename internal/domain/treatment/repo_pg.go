package treatment

import (
	"context"
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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// pgTxRunner satisfies TxRunner over the shared pool.
type pgTxRunner struct{ pool *pgxpool.Pool }

func NewPGTxRunner(pool *pgxpool.Pool) TxRunner {
	return &pgTxRunner{pool: pool}
}

func (r *pgTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, r.pool, fn)
}

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository {
	return &planRepoPG{pool: pool}
}

const planCols = `id, record_id, created_by, instructions, follow_up_date,
	follow_up_instructions, notes, status, created_at, updated_at`

func scanPlan(row pgx.Row) (*TreatmentPlan, error) {
	var p TreatmentPlan
	err := row.Scan(&p.ID, &p.RecordID, &p.CreatedBy, &p.Instructions, &p.FollowUpDate,
		&p.FollowUpInstructions, &p.Notes, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *planRepoPG) Create(ctx context.Context, p *TreatmentPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO treatment_plan (id, record_id, created_by, instructions, follow_up_date,
			follow_up_instructions, notes, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.RecordID, p.CreatedBy, p.Instructions, p.FollowUpDate,
		p.FollowUpInstructions, p.Notes, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TreatmentPlan, error) {
	return scanPlan(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+planCols+` FROM treatment_plan WHERE id = $1`, id))
}

func (r *planRepoPG) Update(ctx context.Context, p *TreatmentPlan) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE treatment_plan SET instructions=$2, follow_up_date=$3,
			follow_up_instructions=$4, notes=$5, status=$6, updated_at=$7
		WHERE id = $1`,
		p.ID, p.Instructions, p.FollowUpDate,
		p.FollowUpInstructions, p.Notes, p.Status, p.UpdatedAt)
	return err
}

func (r *planRepoPG) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*TreatmentPlan, error) {
	return r.list(ctx, `SELECT `+planCols+` FROM treatment_plan WHERE record_id = $1 ORDER BY created_at DESC`, recordID)
}

func (r *planRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TreatmentPlan, error) {
	return r.list(ctx, `
		SELECT p.id, p.record_id, p.created_by, p.instructions, p.follow_up_date,
			p.follow_up_instructions, p.notes, p.status, p.created_at, p.updated_at
		FROM treatment_plan p
		JOIN exam_record e ON e.id = p.record_id
		WHERE e.patient_id = $1
		ORDER BY p.created_at DESC`, patientID)
}

func (r *planRepoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*TreatmentPlan, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TreatmentPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) ReplaceForPlan(ctx context.Context, planID uuid.UUID, meds []*PlanMedication) error {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM treatment_medication WHERE plan_id = $1`, planID); err != nil {
		return err
	}
	for _, m := range meds {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.PlanID = planID
		if _, err := q.Exec(ctx, `
			INSERT INTO treatment_medication (id, plan_id, name, dosage, frequency, duration, instructions)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			m.ID, m.PlanID, m.Name, m.Dosage, m.Frequency, m.Duration, m.Instructions); err != nil {
			return err
		}
	}
	return nil
}

func (r *medicationRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*PlanMedication, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, plan_id, name, dosage, frequency, duration, instructions
		FROM treatment_medication WHERE plan_id = $1 ORDER BY name`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PlanMedication
	for rows.Next() {
		var m PlanMedication
		if err := rows.Scan(&m.ID, &m.PlanID, &m.Name, &m.Dosage, &m.Frequency, &m.Duration, &m.Instructions); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

type reminderRepoPG struct{ pool *pgxpool.Pool }

func NewReminderRepoPG(pool *pgxpool.Pool) ReminderRepository {
	return &reminderRepoPG{pool: pool}
}

const reminderCols = `id, plan_id, type, title, description, field, frequency, enabled, priority, created_at`

func scanReminder(row pgx.Row) (*TreatmentReminder, error) {
	var rem TreatmentReminder
	err := row.Scan(&rem.ID, &rem.PlanID, &rem.Type, &rem.Title, &rem.Description,
		&rem.Field, &rem.Frequency, &rem.Enabled, &rem.Priority, &rem.CreatedAt)
	return &rem, err
}

func (r *reminderRepoPG) ReplaceForPlan(ctx context.Context, planID uuid.UUID, rems []*TreatmentReminder) error {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM treatment_reminder WHERE plan_id = $1`, planID); err != nil {
		return err
	}
	for _, rem := range rems {
		if rem.ID == uuid.Nil {
			rem.ID = uuid.New()
		}
		rem.PlanID = planID
		if rem.CreatedAt.IsZero() {
			rem.CreatedAt = time.Now()
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO treatment_reminder (id, plan_id, type, title, description, field, frequency, enabled, priority, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			rem.ID, rem.PlanID, rem.Type, rem.Title, rem.Description,
			rem.Field, rem.Frequency, rem.Enabled, rem.Priority, rem.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *reminderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TreatmentReminder, error) {
	return scanReminder(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+reminderCols+` FROM treatment_reminder WHERE id = $1`, id))
}

func (r *reminderRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*TreatmentReminder, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+reminderCols+` FROM treatment_reminder WHERE plan_id = $1 ORDER BY created_at`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TreatmentReminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	return items, rows.Err()
}

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepoPG{pool: pool}
}

func (r *responseRepoPG) Append(ctx context.Context, resp *ReminderResponse) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO treatment_response (id, reminder_id, value, response, status, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		resp.ID, resp.ReminderID, resp.Value, resp.Response, resp.Status, resp.RecordedAt)
	return err
}

func (r *responseRepoPG) ListByReminder(ctx context.Context, reminderID uuid.UUID) ([]*ReminderResponse, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, reminder_id, value, response, status, recorded_at
		FROM treatment_response WHERE reminder_id = $1 ORDER BY recorded_at`, reminderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ReminderResponse
	for rows.Next() {
		var resp ReminderResponse
		if err := rows.Scan(&resp.ID, &resp.ReminderID, &resp.Value, &resp.Response, &resp.Status, &resp.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &resp)
	}
	return items, rows.Err()
}

type progressRepoPG struct{ pool *pgxpool.Pool }

func NewProgressRepoPG(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepoPG{pool: pool}
}

// Upsert relies on the partial unique indexes over (plan_id, medication_id,
// date) and (plan_id, date) WHERE medication_id IS NULL.
func (r *progressRepoPG) Upsert(ctx context.Context, e *ProgressEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.MedicationID != nil {
		_, err := conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO treatment_progress (id, plan_id, medication_id, date, status, notes, vital_signs, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (plan_id, medication_id, date) WHERE medication_id IS NOT NULL
			DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes,
				vital_signs = EXCLUDED.vital_signs, created_at = EXCLUDED.created_at`,
			e.ID, e.PlanID, e.MedicationID, e.Date, e.Status, e.Notes, e.VitalSigns, e.CreatedAt)
		return err
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO treatment_progress (id, plan_id, medication_id, date, status, notes, vital_signs, created_at)
		VALUES ($1,$2,NULL,$3,$4,$5,$6,$7)
		ON CONFLICT (plan_id, date) WHERE medication_id IS NULL
		DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes,
			vital_signs = EXCLUDED.vital_signs, created_at = EXCLUDED.created_at`,
		e.ID, e.PlanID, e.Date, e.Status, e.Notes, e.VitalSigns, e.CreatedAt)
	return err
}

func (r *progressRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*ProgressEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, plan_id, medication_id, date, status, notes, vital_signs, created_at
		FROM treatment_progress WHERE plan_id = $1 ORDER BY date DESC`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ProgressEntry
	for rows.Next() {
		var e ProgressEntry
		if err := rows.Scan(&e.ID, &e.PlanID, &e.MedicationID, &e.Date, &e.Status, &e.Notes, &e.VitalSigns, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}
