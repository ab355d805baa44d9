package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSubject(
	r chi.Router,
	subjectHandler *adaptor.SubjectHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// GET /api/subjects - Browse listings (public)
	r.Get("/api/subjects", subjectHandler.GetSubjects)

	// GET /api/subjects/{id} - Listing details (public)
	r.Get("/api/subjects/{id}", subjectHandler.GetSubjectByID)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/subjects - Publish a listing
		r.Post("/api/subjects", subjectHandler.CreateSubject)
	})
}
