package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type ReservationService interface {
	CreateReservation(ctx context.Context, userID string, req *request.CreateReservationRequest) (*response.ReservationResponse, error)
	GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
	GetReservationByID(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
	DeleteReservation(ctx context.Context, userID, reservationID string) error
}

type reservationService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewReservationService(repo *repository.Repository, log *zap.Logger) ReservationService {
	return &reservationService{
		repo: repo,
		log:  log.With(zap.String("service", "reservation")),
	}
}

// CreateReservation is the price/inventory guard: it validates the
// requested extent, computes the charge amount, checks availability and
// creates the reservation in pending/pending state. No hold is taken
// beyond the pending row itself; two concurrent requests for the same
// slot can both pass the availability read, which is resolved later by
// whichever payment completes first.
func (s *reservationService) CreateReservation(ctx context.Context, userID string, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create reservation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: subject ID %s", ErrInvalidInput, req.SubjectID)
	}

	subject, err := s.repo.Subject.FindByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	if subject == nil {
		return nil, fmt.Errorf("subject %s: %w", req.SubjectID, ErrNotFound)
	}

	if subject.OwnerID == userUUID {
		return nil, ErrSelfBooking
	}

	if req.GuestCount > subject.MaxGuests {
		return nil, fmt.Errorf("%w: subject allows at most %d guests", ErrInvalidInput, subject.MaxGuests)
	}

	now := time.Now()
	res := &entity.Reservation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderRef:      utils.GenerateOrderRef(),
		UserID:        userUUID,
		SubjectID:     subjectID,
		Kind:          subject.Kind,
		GuestCount:    req.GuestCount,
		Status:        entity.ReservationStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}

	var amount float64
	switch subject.Kind {
	case entity.SubjectKindStay, entity.SubjectKindVehicle:
		start, end, err := parseDateRange(req.StartDate, req.EndDate, now)
		if err != nil {
			return nil, err
		}
		res.StartDate = &start
		res.EndDate = &end

		nights := int(math.Ceil(end.Sub(start).Hours() / 24))
		amount = subject.UnitPrice * float64(nights) * float64(req.GuestCount)

	case entity.SubjectKindDining:
		date, err := parseDiningDate(req.DiningDate, req.DiningTime, now)
		if err != nil {
			return nil, err
		}
		res.DiningDate = &date
		diningTime := req.DiningTime
		res.DiningTime = &diningTime

		amount = subject.UnitPrice * float64(req.GuestCount)

	default:
		return nil, fmt.Errorf("%w: unknown subject kind %s", ErrInvalidInput, subject.Kind)
	}

	if amount <= 0 {
		return nil, fmt.Errorf("%w: computed amount %.2f", ErrInvalidPrice, amount)
	}
	res.TotalPrice = amount

	if err := s.checkAvailability(ctx, res); err != nil {
		return nil, err
	}

	if err := s.repo.Reservation.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	// Keep the subject's reverse index consistent with the new row.
	if err := s.repo.Subject.AppendReservation(ctx, subjectID, res.ID); err != nil {
		// Rollback: delete reservation
		s.repo.Reservation.Delete(ctx, res.ID)
		return nil, fmt.Errorf("index reservation on subject: %w", err)
	}

	s.log.Info("Reservation created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("order_ref", res.OrderRef),
		zap.String("user_id", userID),
		zap.String("subject_id", req.SubjectID),
		zap.Float64("total_price", amount),
	)

	resp := response.ReservationToResponse(res, subject.Title)
	return &resp, nil
}

// checkAvailability rejects extents that collide with an existing
// non-cancelled reservation on the same subject. Range kinds conflict
// when the half-open day ranges intersect; dining conflicts on an exact
// date and time match.
func (s *reservationService) checkAvailability(ctx context.Context, res *entity.Reservation) error {
	existing, err := s.repo.Reservation.FindActiveBySubjectID(ctx, res.SubjectID)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}

	for _, other := range existing {
		switch res.Kind {
		case entity.SubjectKindStay, entity.SubjectKindVehicle:
			if other.StartDate == nil || other.EndDate == nil {
				continue
			}
			if res.StartDate.Before(*other.EndDate) && other.StartDate.Before(*res.EndDate) {
				return fmt.Errorf("%w: dates unavailable", ErrConflict)
			}

		case entity.SubjectKindDining:
			if other.DiningDate == nil || other.DiningTime == nil {
				continue
			}
			if other.DiningDate.Equal(*res.DiningDate) && *other.DiningTime == *res.DiningTime {
				return fmt.Errorf("%w: slot unavailable", ErrConflict)
			}
		}
	}

	return nil
}

func (s *reservationService) GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	reservations, err := s.repo.Reservation.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user reservations",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("get user reservations: %w", err)
	}

	total, err := s.repo.Reservation.CountByUserID(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to count user reservations", zap.Error(err))
		return nil, fmt.Errorf("count user reservations: %w", err)
	}

	responses := make([]response.ReservationResponse, len(reservations))
	for i, res := range reservations {
		var title string
		subject, _ := s.repo.Subject.FindByID(ctx, res.SubjectID)
		if subject != nil {
			title = subject.Title
		}
		responses[i] = response.ReservationToResponse(res, title)
	}

	return response.NewPaginatedResponse(responses, req.Page, req.PerPage, total), nil
}

func (s *reservationService) GetReservationByID(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	res, subject, err := s.loadOwned(ctx, userID, reservationID, true)
	if err != nil {
		return nil, err
	}

	var title string
	if subject != nil {
		title = subject.Title
	}
	resp := response.ReservationToResponse(res, title)
	return &resp, nil
}

func (s *reservationService) DeleteReservation(ctx context.Context, userID, reservationID string) error {
	res, _, err := s.loadOwned(ctx, userID, reservationID, false)
	if err != nil {
		return err
	}

	// Prune the reverse index and dependent records before the row goes.
	if err := s.repo.Subject.RemoveReservation(ctx, res.SubjectID, res.ID); err != nil {
		s.log.Warn("Failed to prune subject reverse index",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
		)
	}

	if err := s.repo.Notification.DeleteByReservationID(ctx, res.ID); err != nil {
		s.log.Warn("Failed to delete dependent notifications",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
		)
	}

	if err := s.repo.Reservation.Delete(ctx, res.ID); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	s.log.Info("Reservation deleted",
		zap.String("reservation_id", res.ID.String()),
		zap.String("user_id", userID),
	)
	return nil
}

// loadOwned loads a reservation and enforces visibility: the requester
// must be the guest, or (when allowOwner) the subject's owner.
func (s *reservationService) loadOwned(ctx context.Context, userID, reservationID string, allowOwner bool) (*entity.Reservation, *entity.Subject, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reservation ID %s", ErrInvalidInput, reservationID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find reservation: %w", err)
	}
	if res == nil {
		return nil, nil, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}

	subject, _ := s.repo.Subject.FindByID(ctx, res.SubjectID)

	if res.UserID != userUUID {
		if !allowOwner || subject == nil || subject.OwnerID != userUUID {
			return nil, nil, fmt.Errorf("reservation %s: %w", reservationID, ErrForbidden)
		}
	}

	return res, subject, nil
}

func parseDateRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end dates required", ErrInvalidDateRange)
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %s", ErrInvalidDateRange, startStr)
	}

	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %s", ErrInvalidDateRange, endStr)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", ErrInvalidDateRange)
	}

	today := now.Truncate(24 * time.Hour)
	if start.Before(today) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date in the past", ErrInvalidDateRange)
	}

	return start, end, nil
}

func parseDiningDate(dateStr, timeStr string, now time.Time) (time.Time, error) {
	if dateStr == "" || timeStr == "" {
		return time.Time{}, fmt.Errorf("%w: dining date and time required", ErrInvalidDateRange)
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dining date %s", ErrInvalidDateRange, dateStr)
	}

	today := now.Truncate(24 * time.Hour)
	if date.Before(today) {
		return time.Time{}, fmt.Errorf("%w: dining date in the past", ErrInvalidDateRange)
	}

	return date, nil
}
