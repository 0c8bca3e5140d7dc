package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driplinehq/dripline-backend/internal/model"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

type RecipientController struct {
	Repo repository.RecipientRepositoryInterface
}

// Enroll registers a recipient the provider reported as newly followed.
// Re-enrolling an existing ID is a no-op apart from the display name; the
// enrollment timestamp is immutable once set.
func (c *RecipientController) Enroll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID          string   `json:"id"`
		DisplayName string   `json:"display_name"`
		Tags        []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	rec := &model.Recipient{
		ID:          body.ID,
		DisplayName: body.DisplayName,
		Tags:        model.NewTagSet(body.Tags...),
		SentSteps:   model.StepSet{},
	}
	if err := c.Repo.Enroll(rec); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (c *RecipientController) List(w http.ResponseWriter, r *http.Request) {
	recipients, err := c.Repo.ListAll()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  recipients,
		"count": len(recipients),
	})
}

func (c *RecipientController) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := c.Repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// UpdateProfile edits the operator-owned fields only: nickname and tags.
func (c *RecipientController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Nickname string   `json:"nickname"`
		Tags     []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.Repo.UpdateProfile(id, body.Nickname, model.NewTagSet(body.Tags...)); err != nil {
		respondError(w, err)
		return
	}

	rec, err := c.Repo.GetByID(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
