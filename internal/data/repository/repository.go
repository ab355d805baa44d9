package repository

import (
	"travel-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Subject      SubjectRepository
	Reservation  ReservationRepository
	Wallet       WalletRepository
	Notification NotificationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Subject:      NewSubjectRepository(db, log),
		Reservation:  NewReservationRepository(db, log),
		Wallet:       NewWalletRepository(db, log),
		Notification: NewNotificationRepository(db, log),
	}
}
