package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/driplinehq/dripline-backend/internal/model"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

// operatorTimeLayout is how operators type fire times in the admin tooling:
// a local wall-clock time in the reference timezone, no offset.
const operatorTimeLayout = "2006-01-02 15:04"

type ScheduledSendController struct {
	Repo repository.ScheduledSendRepositoryInterface
	// Zone interprets operator-entered send_at values; storage is UTC.
	Zone *time.Location
}

type scheduledSendBody struct {
	RecipientID string   `json:"recipient_id"`
	IncludeTags []string `json:"include_tags"`
	ExcludeTags []string `json:"exclude_tags"`
	MessageText string   `json:"message_text"`
	SendAt      string   `json:"send_at"`
}

// parseSendAt accepts RFC3339 or the operator wall-clock layout and always
// returns UTC.
func (c *ScheduledSendController) parseSendAt(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation(operatorTimeLayout, raw, c.Zone); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func (c *ScheduledSendController) buildSend(body scheduledSendBody, w http.ResponseWriter) (*model.ScheduledSend, bool) {
	if body.MessageText == "" {
		http.Error(w, "message_text is required", http.StatusBadRequest)
		return nil, false
	}
	sendAt, ok := c.parseSendAt(body.SendAt)
	if !ok {
		http.Error(w, "send_at must be RFC3339 or 'YYYY-MM-DD HH:MM'", http.StatusBadRequest)
		return nil, false
	}

	send := &model.ScheduledSend{
		RecipientID: body.RecipientID,
		MessageText: body.MessageText,
		SendAt:      sendAt,
	}
	if send.RecipientID == "" {
		send.Segment = &model.SegmentFilter{
			Include: model.NewTagSet(body.IncludeTags...),
			Exclude: model.NewTagSet(body.ExcludeTags...),
		}
	}
	return send, true
}

func (c *ScheduledSendController) Create(w http.ResponseWriter, r *http.Request) {
	var body scheduledSendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	send, ok := c.buildSend(body, w)
	if !ok {
		return
	}
	if err := c.Repo.Create(send); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, send)
}

func (c *ScheduledSendController) List(w http.ResponseWriter, r *http.Request) {
	sends, err := c.Repo.ListAll()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": sends})
}

func (c *ScheduledSendController) Get(w http.ResponseWriter, r *http.Request) {
	send, err := c.Repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, send)
}

// Update edits a send that is still pending. Once the engine has transitioned
// it, edits are rejected with 409.
func (c *ScheduledSendController) Update(w http.ResponseWriter, r *http.Request) {
	var body scheduledSendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	send, ok := c.buildSend(body, w)
	if !ok {
		return
	}
	send.ID = chi.URLParam(r, "id")
	if err := c.Repo.UpdatePending(send); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, send)
}

func (c *ScheduledSendController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Repo.DeletePending(chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
