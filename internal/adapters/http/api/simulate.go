package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/shangan/internal/app"
	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/simulation"
	"github.com/okian/shangan/internal/domain/types"
	"github.com/okian/shangan/internal/report"
)

// SimulateHandler handles simulation requests.
type SimulateHandler struct {
	sim          Simulator
	maxBodyBytes int64
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(sim Simulator, maxBodyBytes int64) *SimulateHandler {
	return &SimulateHandler{sim: sim, maxBodyBytes: maxBodyBytes}
}

// rivalRequest carries one rival's optional known scores; null or a
// non-positive value means unknown.
type rivalRequest struct {
	Written   *float64 `json:"written"`
	Interview *float64 `json:"interview"`
}

// simulateRequest mirrors the OpenAPI schema for POST /simulate.
type simulateRequest struct {
	Exam              string         `json:"exam"`
	TotalParticipants int            `json:"total_participants"`
	PromotionSlots    int            `json:"promotion_slots"`
	WrittenCutoff     float64        `json:"written_cutoff"`
	UserWritten       *float64       `json:"user_written"`
	UserInterview     float64        `json:"user_interview"`
	Rivals            []rivalRequest `json:"rivals"`
}

// toDomain resolves the exam, checks the cutoff against it and fills the
// user written score from the profile default when it is absent.
func (s simulateRequest) toDomain() (simulation.Request, error) {
	profile, err := exam.Parse(s.Exam)
	if err != nil {
		return simulation.Request{}, err
	}
	if err := profile.CheckCutoff(s.WrittenCutoff); err != nil {
		return simulation.Request{}, err
	}
	written := profile.DefaultUserWritten()
	if s.UserWritten != nil {
		written = *s.UserWritten
	}
	rivals := make([]simulation.RivalScores, len(s.Rivals))
	for i, r := range s.Rivals {
		rivals[i] = simulation.RivalScores{Written: r.Written, Interview: r.Interview}
	}
	return simulation.Request{
		Profile:           profile,
		TotalParticipants: s.TotalParticipants,
		PromotionSlots:    s.PromotionSlots,
		WrittenCutoff:     s.WrittenCutoff,
		UserWritten:       written,
		UserInterview:     s.UserInterview,
		Rivals:            rivals,
	}, nil
}

type simulateResponse struct {
	ID                  string      `json:"id"`
	Exam                exam.Type   `json:"exam"`
	Probability         float64     `json:"probability"`
	PromotionCount      int         `json:"promotion_count"`
	TotalTrials         int         `json:"total_trials"`
	UserComposite       float64     `json:"user_composite"`
	UserRank            int         `json:"user_rank"`
	Promoted            bool        `json:"promoted"`
	HighlightFirstRival bool        `json:"highlight_first_rival"`
	Mood                report.Mood `json:"mood"`
	MoodEmoji           string      `json:"mood_emoji"`
	Summary             string      `json:"summary"`
	Status              string      `json:"status"`
	Rows                []types.Row `json:"rows"`
}

func newSimulateResponse(id string, t exam.Type, res simulation.Result) simulateResponse { //nolint:gocritic // hugeParam: Result is built once per request
	mood := report.MoodFor(res.PromotionProbability)
	return simulateResponse{
		ID:                  id,
		Exam:                t,
		Probability:         res.PromotionProbability,
		PromotionCount:      res.PromotionCount,
		TotalTrials:         res.TotalTrials,
		UserComposite:       res.UserComposite,
		UserRank:            res.UserRank,
		Promoted:            res.Promoted,
		HighlightFirstRival: res.HighlightFirstRival,
		Mood:                mood,
		MoodEmoji:           mood.Emoji(),
		Summary:             report.Summary(res),
		Status:              report.Status(res),
		Rows:                report.Rows(res),
	}
}

// HandlePostSimulate handles POST /simulate requests.
func (h *SimulateHandler) HandlePostSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_simulate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body simulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	req, err := body.toDomain()
	if err != nil {
		writeRequestError(w, op, err)
		return
	}

	id, res, err := h.sim.Simulate(r.Context(), req)
	if err != nil {
		writeSimulateError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newSimulateResponse(id, req.Profile.Type, res))
}

func writeRequestError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, exam.ErrCutoffOutOfRange) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "invalid_parameters",
			Message: WrapKind(op, ErrInvalidParameter, err).Error(),
			Field:   "written_cutoff",
		})
		return
	}
	writeError(w, http.StatusBadRequest, "unknown_exam", WrapKind(op, ErrUnknownExam, err))
}

func writeSimulateError(w http.ResponseWriter, op string, err error) {
	var ipe *simulation.InvalidParametersError
	switch {
	case errors.As(err, &ipe):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "invalid_parameters",
			Message: WrapKind(op, ErrInvalidParameter, err).Error(),
			Field:   ipe.Field,
		})
	case errors.Is(err, simulation.ErrInvalidParameters):
		writeError(w, http.StatusBadRequest, "invalid_parameters", WrapKind(op, ErrInvalidParameter, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
