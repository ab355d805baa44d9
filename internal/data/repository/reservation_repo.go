package repository

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	Create(ctx context.Context, res *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Reservation, error)
	FindByExternalOrderID(ctx context.Context, orderID string) (*entity.Reservation, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindActiveBySubjectID(ctx context.Context, subjectID uuid.UUID) ([]*entity.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// State transitions. All of them are single conditional UPDATEs so the
	// store's per-row write atomicity is the only synchronization needed.
	ClaimSession(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, sessionID string, orderID *string) (bool, error)
	ConfirmPaid(ctx context.Context, id uuid.UUID, paymentRef *string, paidAt time.Time) (bool, error)
	CancelPending(ctx context.Context, id uuid.UUID) (bool, error)
	CancelWithPaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, note *string) (bool, error)
	SetPaymentRef(ctx context.Context, id uuid.UUID, paymentRef string) error
}

const reservationColumns = `id, order_ref, user_id, subject_id, subject_kind,
	       start_date, end_date, dining_date, dining_time, guest_count, total_price,
	       status, payment_status, is_paid, payment_method,
	       external_session_id, external_order_id, external_payment_ref,
	       refund_note, payment_date, created_at, updated_at`

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.OrderRef,
		&res.UserID,
		&res.SubjectID,
		&res.Kind,
		&res.StartDate,
		&res.EndDate,
		&res.DiningDate,
		&res.DiningTime,
		&res.GuestCount,
		&res.TotalPrice,
		&res.Status,
		&res.PaymentStatus,
		&res.IsPaid,
		&res.PaymentMethod,
		&res.ExternalSessionID,
		&res.ExternalOrderID,
		&res.ExternalPaymentRef,
		&res.RefundNote,
		&res.PaymentDate,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (id, order_ref, user_id, subject_id, subject_kind,
		                          start_date, end_date, dining_date, dining_time,
		                          guest_count, total_price, status, payment_status,
		                          is_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		res.ID,
		res.OrderRef,
		res.UserID,
		res.SubjectID,
		res.Kind,
		res.StartDate,
		res.EndDate,
		res.DiningDate,
		res.DiningTime,
		res.GuestCount,
		res.TotalPrice,
		res.Status,
		res.PaymentStatus,
		res.IsPaid,
		res.CreatedAt,
		res.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("order_ref", res.OrderRef),
			zap.String("user_id", res.UserID.String()),
		)
		return fmt.Errorf("create reservation %s: %w", res.OrderRef, err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE external_session_id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, sessionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by session ID",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return nil, fmt.Errorf("find reservation by session ID %s: %w", sessionID, err)
	}

	return res, nil
}

func (r *reservationRepository) FindByExternalOrderID(ctx context.Context, orderID string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE external_order_id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by external order ID",
			zap.Error(err),
			zap.String("external_order_id", orderID),
		)
		return nil, fmt.Errorf("find reservation by external order ID %s: %w", orderID, err)
	}

	return res, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find reservations by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, nil
}

func (r *reservationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reservations by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count reservations by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

// FindActiveBySubjectID returns non-cancelled reservations on a subject,
// used by the availability overlap check.
func (r *reservationRepository) FindActiveBySubjectID(ctx context.Context, subjectID uuid.UUID) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE subject_id = $1 AND status <> 'cancelled'
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		r.log.Error("Failed to find active reservations by subject ID",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
		)
		return nil, fmt.Errorf("find active reservations by subject ID %s: %w", subjectID.String(), err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, nil
}

func (r *reservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reservations WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("delete reservation %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", id.String())
	}

	r.log.Info("Reservation deleted", zap.String("reservation_id", id.String()))
	return nil
}

// ClaimSession persists the processor session onto the reservation.
// The external_session_id IS NULL guard makes the write first-wins: a
// second session for the same reservation is rejected, keeping the
// correlation key stable for the lifetime of the reservation.
func (r *reservationRepository) ClaimSession(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, sessionID string, orderID *string) (bool, error) {
	query := `
		UPDATE reservations
		SET payment_method = $2, external_session_id = $3, external_order_id = $4, updated_at = NOW()
		WHERE id = $1 AND external_session_id IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, method, sessionID, orderID)
	if err != nil {
		r.log.Error("Failed to claim payment session",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("session_id", sessionID),
		)
		return false, fmt.Errorf("claim session for reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// ConfirmPaid flips a reservation to confirmed/paid. The is_paid = FALSE
// guard is the idempotency check: when three triggers race, only the
// first one observes a row flip, and only that caller dispatches
// notifications. Cancelled reservations are never resurrected.
func (r *reservationRepository) ConfirmPaid(ctx context.Context, id uuid.UUID, paymentRef *string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'confirmed', payment_status = 'paid', is_paid = TRUE,
		    external_payment_ref = COALESCE($2, external_payment_ref),
		    payment_date = $3, updated_at = NOW()
		WHERE id = $1 AND is_paid = FALSE AND status <> 'cancelled'
	`

	result, err := r.db.Exec(ctx, query, id, paymentRef, paidAt)
	if err != nil {
		r.log.Error("Failed to confirm reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return false, fmt.Errorf("confirm reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// CancelPending handles payment abandonment: pending reservations only,
// repeat calls are no-ops.
func (r *reservationRepository) CancelPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to cancel pending reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return false, fmt.Errorf("cancel pending reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reservationRepository) CancelWithPaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, note *string) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', payment_status = $2, refund_note = $3, updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'
	`

	result, err := r.db.Exec(ctx, query, id, status, note)
	if err != nil {
		r.log.Error("Failed to cancel reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("payment_status", string(status)),
		)
		return false, fmt.Errorf("cancel reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reservationRepository) SetPaymentRef(ctx context.Context, id uuid.UUID, paymentRef string) error {
	query := `UPDATE reservations SET external_payment_ref = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, paymentRef)
	if err != nil {
		r.log.Error("Failed to set payment reference",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("set payment ref for reservation %s: %w", id.String(), err)
	}

	return nil
}
