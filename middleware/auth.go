package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/models"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
	"github.com/Ariffin97/portal-mpa-sub001/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, loaded fresh from the user store.
type Identity struct {
	UserID         primitive.ObjectID
	Name           string
	Email          string
	Role           string
	State          string
	OrganizationID primitive.ObjectID
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

type Auth struct {
	secret []byte
	users  repository.UserStore
	log    *zap.Logger
}

func NewAuth(secret []byte, users repository.UserStore, log *zap.Logger) *Auth {
	return &Auth{secret: secret, users: users, log: log}
}

// Authenticate requires a valid bearer token whose user still exists.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := utils.ValidateJWT(a.secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			a.log.Debug("jwt validation failed", zap.Error(err))
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		user, err := a.users.FindUserByID(r.Context(), userID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
				return
			}
			a.log.Error("load user", zap.String("user_id", claims.UserID), zap.Error(err))
			utils.RespondWithAppError(w, err)
			return
		}

		if user.Role == models.RoleOrganiser && user.OrganizationID.IsZero() {
			utils.RespondWithError(w, http.StatusForbidden, "User has no organization")
			return
		}

		ctx := WithIdentity(r.Context(), &Identity{
			UserID:         user.ID,
			Name:           user.FullName,
			Email:          user.Email,
			Role:           user.Role,
			State:          user.State,
			OrganizationID: user.OrganizationID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets through only callers with one of roles. It must run
// after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}
