package repository

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SubjectRepository interface {
	Create(ctx context.Context, subject *entity.Subject) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Subject, error)
	CountAll(ctx context.Context) (int64, error)

	// Reverse index maintenance
	AppendReservation(ctx context.Context, subjectID, reservationID uuid.UUID) error
	RemoveReservation(ctx context.Context, subjectID, reservationID uuid.UUID) error
}

type subjectRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSubjectRepository(db database.PgxIface, log *zap.Logger) SubjectRepository {
	return &subjectRepository{
		db:  db,
		log: log.With(zap.String("repository", "subject")),
	}
}

func (r *subjectRepository) Create(ctx context.Context, subject *entity.Subject) error {
	query := `
		INSERT INTO subjects (id, owner_id, kind, title, description, location,
		                      unit_price, max_guests, reservation_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		subject.ID,
		subject.OwnerID,
		subject.Kind,
		subject.Title,
		subject.Description,
		subject.Location,
		subject.UnitPrice,
		subject.MaxGuests,
		subject.ReservationIDs,
		subject.CreatedAt,
		subject.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create subject",
			zap.Error(err),
			zap.String("owner_id", subject.OwnerID.String()),
			zap.String("kind", string(subject.Kind)),
		)
		return fmt.Errorf("create subject %s: %w", subject.Title, err)
	}

	return nil
}

func (r *subjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error) {
	query := `
		SELECT id, owner_id, kind, title, description, location,
		       unit_price, max_guests, reservation_ids, created_at, updated_at
		FROM subjects
		WHERE id = $1 AND deleted_at IS NULL
	`

	var subject entity.Subject
	err := r.db.QueryRow(ctx, query, id).Scan(
		&subject.ID,
		&subject.OwnerID,
		&subject.Kind,
		&subject.Title,
		&subject.Description,
		&subject.Location,
		&subject.UnitPrice,
		&subject.MaxGuests,
		&subject.ReservationIDs,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find subject by ID",
			zap.Error(err),
			zap.String("subject_id", id.String()),
		)
		return nil, fmt.Errorf("find subject by ID %s: %w", id.String(), err)
	}

	return &subject, nil
}

func (r *subjectRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Subject, error) {
	query := `
		SELECT id, owner_id, kind, title, description, location,
		       unit_price, max_guests, reservation_ids, created_at, updated_at
		FROM subjects
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find subjects", zap.Error(err))
		return nil, fmt.Errorf("find subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*entity.Subject
	for rows.Next() {
		var subject entity.Subject
		err := rows.Scan(
			&subject.ID,
			&subject.OwnerID,
			&subject.Kind,
			&subject.Title,
			&subject.Description,
			&subject.Location,
			&subject.UnitPrice,
			&subject.MaxGuests,
			&subject.ReservationIDs,
			&subject.CreatedAt,
			&subject.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan subject row", zap.Error(err))
			return nil, fmt.Errorf("scan subject row: %w", err)
		}
		subjects = append(subjects, &subject)
	}

	return subjects, nil
}

func (r *subjectRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM subjects WHERE deleted_at IS NULL`

	var count int64
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count subjects", zap.Error(err))
		return 0, fmt.Errorf("count subjects: %w", err)
	}

	return count, nil
}

func (r *subjectRepository) AppendReservation(ctx context.Context, subjectID, reservationID uuid.UUID) error {
	query := `
		UPDATE subjects
		SET reservation_ids = array_append(reservation_ids, $2), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, subjectID, reservationID)
	if err != nil {
		r.log.Error("Failed to append reservation to subject",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("reservation_id", reservationID.String()),
		)
		return fmt.Errorf("append reservation %s to subject %s: %w",
			reservationID.String(), subjectID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("subject %s not found", subjectID.String())
	}

	return nil
}

func (r *subjectRepository) RemoveReservation(ctx context.Context, subjectID, reservationID uuid.UUID) error {
	query := `
		UPDATE subjects
		SET reservation_ids = array_remove(reservation_ids, $2), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, subjectID, reservationID)
	if err != nil {
		r.log.Error("Failed to remove reservation from subject",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("reservation_id", reservationID.String()),
		)
		return fmt.Errorf("remove reservation %s from subject %s: %w",
			reservationID.String(), subjectID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("subject %s not found", subjectID.String())
	}

	return nil
}
