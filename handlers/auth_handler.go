package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/middleware"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/utils"
)

// dummyHash keeps the login timing similar for unknown emails.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z6vZz8n5Ih1s1uZC9Zr6VdXW"

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token        string               `json:"token"`
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization,omitempty"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds loginPayload
	if err := utils.ParseJSON(w, r, &creds); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || !strings.Contains(creds.Email, "@") {
		utils.RespondWithError(w, http.StatusBadRequest, "Valid email required")
		return
	}
	if creds.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Password required")
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), creds.Email)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			_ = utils.CheckPasswordHash(creds.Password, dummyHash)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.log.Error("login lookup", zap.Error(err))
		utils.RespondWithAppError(w, err)
		return
	}
	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.log.Error("jwt generation", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	h.log.Info("user logged in", zap.String("user_id", user.ID.Hex()), zap.String("role", user.Role))
	utils.RespondWithJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the caller's account and, for organisers, their organisation.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.users.FindUserByID(r.Context(), id.UserID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	resp := authResponse{User: user}
	if !user.OrganizationID.IsZero() {
		org, err := h.orgs.FindOrganizationByID(r.Context(), user.OrganizationID)
		if err != nil && apperrors.CodeOf(err) != apperrors.CodeNotFound {
			utils.RespondWithAppError(w, err)
			return
		}
		resp.Organization = org
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) issueToken(user *models.User) (string, error) {
	orgID := ""
	if !user.OrganizationID.IsZero() {
		orgID = user.OrganizationID.Hex()
	}
	return utils.GenerateJWT(h.jwtSecret, h.jwtTTL, user.ID.Hex(), user.FullName, user.Role, orgID)
}
