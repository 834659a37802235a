package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/middleware"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
	"github.com/Ariffin97/portal-mpa-sub001/utils"
	"github.com/Ariffin97/portal-mpa-sub001/workflow"
)

// submitPayload accepts event dates as plain dates or RFC 3339 timestamps.
type submitPayload struct {
	models.EventDetails
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func parseDate(field, raw string, fields map[string]string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	fields[field] = "must be a date (YYYY-MM-DD)"
	return time.Time{}
}

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := utils.ParseJSON(w, r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload format")
		return
	}

	bad := map[string]string{}
	event := payload.EventDetails
	event.StartDate = parseDate("startDate", payload.StartDate, bad)
	event.EndDate = parseDate("endDate", payload.EndDate, bad)
	if len(bad) > 0 {
		utils.RespondWithAppError(w, apperrors.ValidationFields("invalid application details", bad))
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	app, err := h.workflow.Submit(r.Context(), workflow.SubmitRequest{Event: event, Actor: actorFrom(id)})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, app)
}

type listResponse struct {
	Applications []models.Application `json:"applications"`
	Total        int64                `json:"total"`
	Skip         int                  `json:"skip"`
	Limit        int                  `json:"limit"`
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ListFilter{
		Status: models.Status(strings.TrimSpace(q.Get("status"))),
		State:  q.Get("state"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	var err error
	if filter.Skip, err = intParam(q.Get("skip")); err != nil {
		utils.RespondWithAppError(w, apperrors.Validation("skip", "must be a non-negative integer"))
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		utils.RespondWithAppError(w, apperrors.Validation("limit", "must be a non-negative integer"))
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	apps, total, err := h.workflow.List(r.Context(), filter, actorFrom(id))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, listResponse{
		Applications: apps,
		Total:        total,
		Skip:         filter.Skip,
		Limit:        filter.EffectiveLimit(),
	})
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

func (h *Handler) ApplicationStats(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	counts, err := h.workflow.Stats(r.Context(), actorFrom(id))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	var total int64
	byStatus := make(map[string]int64, len(counts))
	for st, n := range counts {
		byStatus[string(st)] = n
		total += n
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"byStatus": byStatus,
	})
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	app, err := h.workflow.Get(r.Context(), mux.Vars(r)["applicationId"], actorFrom(id))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, app)
}

type changeStatusPayload struct {
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	Remarks      string `json:"remarks,omitempty"`
	RequiredInfo string `json:"requiredInfo,omitempty"`
}

// ChangeStatus moves an application to a new status. The rejection reason
// may be sent as either reason or remarks.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var payload changeStatusPayload
	if err := utils.ParseJSON(w, r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload format")
		return
	}
	reason := payload.Reason
	if reason == "" {
		reason = payload.Remarks
	}

	id, _ := middleware.IdentityFrom(r.Context())
	app, err := h.workflow.ChangeStatus(r.Context(), workflow.ChangeStatusRequest{
		ApplicationID: mux.Vars(r)["applicationId"],
		Status:        payload.Status,
		Reason:        reason,
		RequiredInfo:  payload.RequiredInfo,
		Actor:         actorFrom(id),
	})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, app)
}

type resubmitPayload struct {
	Reply string `json:"reply"`
}

func (h *Handler) ResubmitApplication(w http.ResponseWriter, r *http.Request) {
	var payload resubmitPayload
	if err := utils.ParseJSON(w, r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload format")
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	app, err := h.workflow.Resubmit(r.Context(), workflow.ResubmitRequest{
		ApplicationID: mux.Vars(r)["applicationId"],
		Reply:         payload.Reply,
		Actor:         actorFrom(id),
	})
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, app)
}

func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if err := h.workflow.Delete(r.Context(), mux.Vars(r)["applicationId"], actorFrom(id)); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApplicationHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	logs, err := h.workflow.History(r.Context(), mux.Vars(r)["applicationId"], actorFrom(id))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"history": logs})
}
