package api

import (
	"net/http"
)

// ExercisesHandler lists the available exercises with their effective settings.
type ExercisesHandler struct {
	exercises ExerciseSource
}

// NewExercisesHandler creates an ExercisesHandler.
func NewExercisesHandler(exercises ExerciseSource) *ExercisesHandler {
	return &ExercisesHandler{exercises: exercises}
}

type exerciseResponse struct {
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	Strategy          string  `json:"strategy"`
	Calibration       string  `json:"calibration"`
	Threshold         float64 `json:"threshold"`
	HoldSeconds       float64 `json:"hold_seconds"`
	TargetRepsPerSide int     `json:"target_reps_per_side"`
	Sides             int     `json:"sides"`
	RequireSelection  bool    `json:"require_selection"`
	RequiresAssist    bool    `json:"requires_assist"`
	AssistThreshold   float64 `json:"assist_threshold,omitempty"`
}

func (h *ExercisesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list, err := h.exercises.ExerciseList()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]exerciseResponse, 0, len(list))
	for _, ex := range list {
		resp = append(resp, exerciseResponse{
			Name:              ex.Name,
			Title:             ex.Title,
			Strategy:          string(ex.Strategy),
			Calibration:       string(ex.Calibration),
			Threshold:         ex.AngleThreshold,
			HoldSeconds:       ex.HoldDuration.Seconds(),
			TargetRepsPerSide: ex.TargetRepsPerSide,
			Sides:             ex.Sides,
			RequireSelection:  ex.RequireSelection,
			RequiresAssist:    ex.RequiresAssist,
			AssistThreshold:   ex.AssistThreshold,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": resp})
}
