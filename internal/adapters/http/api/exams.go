package api

import (
	"net/http"

	"github.com/okian/shangan/internal/domain/exam"
)

// ExamsHandler lists the exam profiles.
type ExamsHandler struct {
	sim Simulator
}

// NewExamsHandler creates a new exams handler.
func NewExamsHandler(sim Simulator) *ExamsHandler {
	return &ExamsHandler{sim: sim}
}

type examResponse struct {
	exam.Profile
	Formula            string  `json:"formula"`
	DefaultUserWritten float64 `json:"default_user_written"`
	InterviewMin       float64 `json:"interview_min"`
	InterviewMax       float64 `json:"interview_max"`
}

// HandleGetExams handles GET /exams requests.
func (h *ExamsHandler) HandleGetExams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	profiles := h.sim.Profiles()
	out := make([]examResponse, len(profiles))
	for i, p := range profiles {
		out[i] = examResponse{
			Profile:            p,
			Formula:            p.Formula.String(),
			DefaultUserWritten: p.DefaultUserWritten(),
			InterviewMin:       exam.InterviewMin,
			InterviewMax:       exam.InterviewMax,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
