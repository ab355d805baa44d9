package adaptor

import (
	"encoding/json"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SubjectHandler struct {
	service usecase.SubjectService
	log     *zap.Logger
}

func NewSubjectHandler(service usecase.SubjectService, log *zap.Logger) *SubjectHandler {
	return &SubjectHandler{
		service: service,
		log:     log.With(zap.String("handler", "subject")),
	}
}

// CreateSubject handles POST /api/subjects (protected)
func (h *SubjectHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	subject, err := h.service.CreateSubject(r.Context(), userID.String(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create subject")
		return
	}

	utils.ResponseCreated(w, "success", subject)
}

// GetSubjects handles GET /api/subjects (public)
func (h *SubjectHandler) GetSubjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	subjects, err := h.service.GetSubjects(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "list subjects")
		return
	}

	utils.ResponseSuccess(w, "success", subjects)
}

// GetSubjectByID handles GET /api/subjects/{id} (public)
func (h *SubjectHandler) GetSubjectByID(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "id")
	if subjectID == "" {
		utils.ResponseBadRequest(w, "Subject ID is required", nil)
		return
	}

	subject, err := h.service.GetSubjectByID(r.Context(), subjectID)
	if err != nil {
		handleServiceError(h.log, w, err, "get subject by ID")
		return
	}

	utils.ResponseSuccess(w, "success", subject)
}
