package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driplinehq/dripline-backend/internal/model"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

type DripStepController struct {
	Repo repository.DripStepRepositoryInterface
}

func (c *DripStepController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DaysAfter   int    `json:"days_after"`
		MessageText string `json:"message_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.DaysAfter < 0 {
		http.Error(w, "days_after must be >= 0", http.StatusBadRequest)
		return
	}
	if body.MessageText == "" {
		http.Error(w, "message_text is required", http.StatusBadRequest)
		return
	}

	step := &model.DripStep{DaysAfter: body.DaysAfter, MessageText: body.MessageText}
	if err := c.Repo.Create(step); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, step)
}

func (c *DripStepController) List(w http.ResponseWriter, r *http.Request) {
	steps, err := c.Repo.ListAll()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": steps})
}

func (c *DripStepController) Get(w http.ResponseWriter, r *http.Request) {
	step, err := c.Repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, step)
}

func (c *DripStepController) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DaysAfter   int    `json:"days_after"`
		MessageText string `json:"message_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.DaysAfter < 0 {
		http.Error(w, "days_after must be >= 0", http.StatusBadRequest)
		return
	}

	step := &model.DripStep{
		ID:          chi.URLParam(r, "id"),
		DaysAfter:   body.DaysAfter,
		MessageText: body.MessageText,
	}
	if err := c.Repo.Update(step); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, step)
}

func (c *DripStepController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Repo.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
