// handlers/organization_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
	"github.com/Ariffin97/portal-mpa-sub001/utils"
)

const minPasswordLength = 8

type createOrgPayload struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
	Email              string `json:"email"`
	Phone              string `json:"phone,omitempty"`
	State              string `json:"state"`
	Address            string `json:"address,omitempty"`
	ContactName        string `json:"contactName"`
	Password           string `json:"password"`
}

func (p *createOrgPayload) validate() error {
	fields := map[string]string{}
	required := map[string]string{
		"name":               p.Name,
		"registrationNumber": p.RegistrationNumber,
		"email":              p.Email,
		"state":              p.State,
		"contactName":        p.ContactName,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			fields[field] = "is required"
		}
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(p.Password) < minPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return apperrors.ValidationFields("Missing or invalid fields", fields)
	}
	return nil
}

// CreateOrganization registers an organisation together with its first
// organiser account and signs that account in.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var payload createOrgPayload
	if err := utils.ParseJSON(w, r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload format")
		return
	}
	if err := payload.validate(); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx := r.Context()

	// Checked first so a taken email does not leave an orphaned organisation.
	if _, err := h.users.FindUserByEmail(ctx, payload.Email); err == nil {
		utils.RespondWithError(w, http.StatusConflict, "Email already registered")
		return
	} else if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		utils.RespondWithAppError(w, err)
		return
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	now := time.Now().UTC()
	org := &models.Organization{
		ID:                 primitive.NewObjectID(),
		Name:               strings.TrimSpace(payload.Name),
		RegistrationNumber: strings.TrimSpace(payload.RegistrationNumber),
		Email:              strings.TrimSpace(payload.Email),
		Phone:              payload.Phone,
		State:              payload.State,
		Address:            payload.Address,
		CreatedAt:          now,
	}
	if err := h.orgs.InsertOrganization(ctx, org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.RespondWithError(w, http.StatusConflict, "Organization already registered")
			return
		}
		utils.RespondWithAppError(w, err)
		return
	}

	user := &models.User{
		ID:             primitive.NewObjectID(),
		FullName:       strings.TrimSpace(payload.ContactName),
		Email:          payload.Email,
		Phone:          payload.Phone,
		PasswordHash:   hash,
		Role:           models.RoleOrganiser,
		State:          payload.State,
		OrganizationID: org.ID,
		CreatedAt:      now,
	}
	if err := h.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.RespondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		utils.RespondWithAppError(w, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	h.log.Info("organization registered",
		zap.String("organization_id", org.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
	)
	utils.RespondWithJSON(w, http.StatusCreated, authResponse{Token: token, User: user, Organization: org})
}
