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

type createReviewerPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
	State    string `json:"state,omitempty"`
}

// CreateReviewer adds an admin or state reviewer account.
func (h *Handler) CreateReviewer(w http.ResponseWriter, r *http.Request) {
	var payload createReviewerPayload
	if err := utils.ParseJSON(w, r, &payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload format")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(payload.FullName) == "" {
		fields["fullName"] = "is required"
	}
	if !strings.Contains(payload.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(payload.Password) < minPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if !models.IsReviewer(payload.Role) {
		fields["role"] = "must be admin or state"
	}
	if payload.Role == models.RoleState && strings.TrimSpace(payload.State) == "" {
		fields["state"] = "is required for state reviewers"
	}
	if len(fields) > 0 {
		utils.RespondWithAppError(w, apperrors.ValidationFields("Missing or invalid fields", fields))
		return
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &models.User{
		ID:           primitive.NewObjectID(),
		FullName:     strings.TrimSpace(payload.FullName),
		Email:        payload.Email,
		Phone:        payload.Phone,
		PasswordHash: hash,
		Role:         payload.Role,
		State:        payload.State,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.RespondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		utils.RespondWithAppError(w, err)
		return
	}

	h.log.Info("reviewer created", zap.String("user_id", user.ID.Hex()), zap.String("role", user.Role))
	utils.RespondWithJSON(w, http.StatusCreated, user)
}
