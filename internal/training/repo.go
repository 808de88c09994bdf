package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/traininglog/internal/dates"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrEntryNotFound      = errors.New("training entry not found")
	ErrLinkedPlanNotFound = errors.New("linked planned entry not found")
	ErrEntryExists        = errors.New("training entry already exists")
	ErrNumberingConflict  = errors.New("numbering update conflict")
)

const selectEntryColumns = `
	SELECT
		id, owner_id, status, title, entry_date, distance_km, duration_seconds,
		avg_heart_rate, sequence_number, training_week, linked_plan_id, created_at
	FROM training_entry`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// List returns all entries of an owner, in creation order.
func (r *Repo) List(ctx context.Context, ownerID string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner", ownerID))

	rows, err := r.db.Query(ctx, selectEntryColumns+`
		WHERE owner_id = $1
		ORDER BY created_at, id;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2entries(rows)
}

func (r *Repo) ListByStatus(ctx context.Context, ownerID string, status Status) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.list-by-status")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner", ownerID))
	span.SetAttributes(attribute.String("status", status.String()))

	rows, err := r.db.Query(ctx, selectEntryColumns+`
		WHERE owner_id = $1 AND status = $2
		ORDER BY entry_date NULLS LAST, created_at, id;`,
		ownerID, status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2entries(rows)
}

// ListUnlinkedPlanned returns planned entries no completed entry links to.
func (r *Repo) ListUnlinkedPlanned(ctx context.Context, ownerID string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.list-unlinked-planned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner", ownerID))

	rows, err := r.db.Query(ctx, selectEntryColumns+` p
		WHERE p.owner_id = $1
		  AND p.status = 'planned'
		  AND NOT EXISTS (
			SELECT 1 FROM training_entry c
			WHERE c.owner_id = p.owner_id AND c.linked_plan_id = p.id
		  )
		ORDER BY p.entry_date NULLS LAST, p.created_at, p.id;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2entries(rows)
}

func (r *Repo) Get(ctx context.Context, ownerID string, id uuid.UUID) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	rows, err := r.db.Query(ctx, selectEntryColumns+`
		WHERE owner_id = $1 AND id = $2;`,
		ownerID, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := rows2entries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) != 1 {
		return nil, ErrEntryNotFound
	}

	return &entries[0], nil
}

func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	span.SetAttributes(attribute.String("id", entry.ID.String()))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO training_entry
				(id, owner_id, status, title, entry_date, distance_km, duration_seconds,
				 avg_heart_rate, sequence_number, training_week, linked_plan_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		entry.ID, entry.OwnerID, entry.Status, entry.Title, dateParam(entry.Date), entry.DistanceKm,
		entry.DurationSeconds, entry.AvgHeartRate, entry.SequenceNumber, entry.TrainingWeek,
		entry.LinkedPlanID, entry.CreatedAt,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrLinkedPlanNotFound
		}
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEntryExists
		}
		if pkg.IsCheckViolationError(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEntry, err)
		}
		return nil, err
	}

	return &entry, nil
}

// Update stores the editable fields of an entry. Status, link, owner and
// numbering are not touched here.
func (r *Repo) Update(ctx context.Context, entry *Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", entry.ID.String()))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE training_entry
			SET title = $1, entry_date = $2, distance_km = $3, duration_seconds = $4, avg_heart_rate = $5
			WHERE owner_id = $6 AND id = $7;`,
		entry.Title, dateParam(entry.Date), entry.DistanceKm, entry.DurationSeconds, entry.AvgHeartRate,
		entry.OwnerID, entry.ID,
	)
	if err != nil {
		if pkg.IsCheckViolationError(err) {
			return fmt.Errorf("%w: %s", ErrInvalidEntry, err)
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// Delete removes an entry. Deleting a completed entry that carries a linked
// plan removes that planned entry too, in the same transaction.
// Returns the ids of all removed entries.
func (r *Repo) Delete(ctx context.Context, ownerID string, id uuid.UUID) (_ []uuid.UUID, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var linkedPlanID *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT linked_plan_id FROM training_entry
		WHERE owner_id = $1 AND id = $2
		FOR UPDATE;`,
		ownerID, id,
	).Scan(&linkedPlanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	deleted := []uuid.UUID{id}
	if _, err = tx.Exec(ctx, `DELETE FROM training_entry WHERE owner_id = $1 AND id = $2;`, ownerID, id); err != nil {
		return nil, err
	}

	if linkedPlanID != nil {
		tag, err := tx.Exec(ctx,
			`DELETE FROM training_entry WHERE owner_id = $1 AND id = $2 AND status = 'planned';`,
			ownerID, *linkedPlanID,
		)
		if err != nil {
			return nil, fmt.Errorf("delete linked plan %s: %w", linkedPlanID, err)
		}
		if tag.RowsAffected() > 0 {
			deleted = append(deleted, *linkedPlanID)
		}
	}

	return deleted, nil
}

// ApplyNumbering writes all numbering updates of one owner in a single transaction.
// If any row is missing (deleted meanwhile) nothing is written.
func (r *Repo) ApplyNumbering(ctx context.Context, ownerID string, updates []NumberingUpdate) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.apply-numbering")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner", ownerID))
	span.SetAttributes(attribute.Int("updates", len(updates)))

	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE training_entry SET sequence_number = $1, training_week = $2 WHERE owner_id = $3 AND id = $4;`,
			u.SequenceNumber, u.TrainingWeek, ownerID, u.ID,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, u := range updates {
		tag, execErr := results.Exec()
		if execErr != nil {
			_ = results.Close()
			return fmt.Errorf("update numbering of %s: %w", u.ID, execErr)
		}
		if tag.RowsAffected() == 0 {
			_ = results.Close()
			return fmt.Errorf("%w: entry %s", ErrNumberingConflict, u.ID)
		}
	}

	return results.Close()
}

func (r *Repo) ListOwners(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.list-owners")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT DISTINCT owner_id FROM training_entry ORDER BY owner_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make([]string, 0)
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}

	return owners, rows.Err()
}

func rows2entries(rows pgx.Rows) ([]Entry, error) {
	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var entryDate pgtype.Date
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.Status, &e.Title, &entryDate, &e.DistanceKm, &e.DurationSeconds,
			&e.AvgHeartRate, &e.SequenceNumber, &e.TrainingWeek, &e.LinkedPlanID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if entryDate.Valid {
			e.Date = dates.FromTime(entryDate.Time)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func dateParam(d dates.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}
