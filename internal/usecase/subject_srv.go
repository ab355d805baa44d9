package usecase

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubjectService manages the bookable listings: stays, vehicles and
// dining venues share one catalog with a kind discriminator.
type SubjectService interface {
	CreateSubject(ctx context.Context, ownerID string, req *request.CreateSubjectRequest) (*response.SubjectResponse, error)
	GetSubjects(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.SubjectResponse], error)
	GetSubjectByID(ctx context.Context, subjectID string) (*response.SubjectResponse, error)
}

type subjectService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewSubjectService(repo *repository.Repository, log *zap.Logger) SubjectService {
	return &subjectService{
		repo: repo,
		log:  log.With(zap.String("service", "subject")),
	}
}

func (s *subjectService) CreateSubject(ctx context.Context, ownerID string, req *request.CreateSubjectRequest) (*response.SubjectResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create subject validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: owner ID %s", ErrInvalidInput, ownerID)
	}

	kind := entity.SubjectKind(req.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown subject kind %s", ErrInvalidInput, req.Kind)
	}

	now := time.Now()
	subject := &entity.Subject{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:   ownerUUID,
		Kind:      kind,
		Title:     req.Title,
		UnitPrice: req.UnitPrice,
		MaxGuests: req.MaxGuests,
	}
	if req.Description != "" {
		subject.Description = &req.Description
	}
	if req.Location != "" {
		subject.Location = &req.Location
	}

	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.log.Error("Failed to create subject", zap.Error(err))
		return nil, fmt.Errorf("create subject: %w", err)
	}

	s.log.Info("Subject created",
		zap.String("subject_id", subject.ID.String()),
		zap.String("kind", string(kind)))

	resp := response.SubjectToResponse(subject)
	return &resp, nil
}

func (s *subjectService) GetSubjects(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.SubjectResponse], error) {
	req.Normalize()

	subjects, err := s.repo.Subject.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list subjects", zap.Error(err))
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	total, err := s.repo.Subject.CountAll(ctx)
	if err != nil {
		s.log.Error("Failed to count subjects", zap.Error(err))
		return nil, fmt.Errorf("count subjects: %w", err)
	}

	items := make([]response.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		items = append(items, response.SubjectToResponse(subject))
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

func (s *subjectService) GetSubjectByID(ctx context.Context, subjectID string) (*response.SubjectResponse, error) {
	id, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: subject ID %s", ErrInvalidInput, subjectID)
	}

	subject, err := s.repo.Subject.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	if subject == nil {
		return nil, fmt.Errorf("subject %s: %w", subjectID, ErrNotFound)
	}

	resp := response.SubjectToResponse(subject)
	return &resp, nil
}
