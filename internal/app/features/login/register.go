// internal/app/features/login/register.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/normalize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

const minPasswordLen = 8

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (req *registerRequest) validate() []httpjson.FieldError {
	var errs []httpjson.FieldError
	email := normalize.Email(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		errs = append(errs, httpjson.FieldError{Field: "email", Message: "a valid email address is required"})
	}
	if len(req.Password) < minPasswordLen {
		errs = append(errs, httpjson.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if normalize.Name(req.FullName) == "" {
		errs = append(errs, httpjson.FieldError{Field: "full_name", Message: "full name is required"})
	}
	return errs
}

// HandleRegister handles POST /auth/register.
//
// New accounts always get the least-privileged role; anything higher is
// granted later by an admin.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpjson.FieldErrors(w, "registration rejected", errs)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("bcrypt hash failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Email:    req.Email,
		PassHash: string(hash),
		FullName: req.FullName,
		Role:     roles.User,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, "a user with this email already exists")
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.AuditLog.Registered(ctx, r, user.ID, user.Email)

	if err := h.signIn(w, r, &user); err != nil {
		h.Log.Error("sign-in after registration failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusCreated, user)
}
