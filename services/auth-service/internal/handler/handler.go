package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/service"
)

const maxBodyBytes = 1 << 20

// Handler adapts AuthService to HTTP.
type Handler struct {
	auth service.AuthService
	log  logger.Logger
}

func New(auth service.AuthService, log logger.Logger) *Handler {
	return &Handler{auth: auth, log: log}
}

type emailRequest struct {
	Email string `json:"email"`
}

type codeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type confirmPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.auth.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) UserActivate(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		h.fail(w, r, pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails("email: malformed path parameter"))
		return
	}

	res, err := h.auth.UserActivate(r.Context(), email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}

	session, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *Handler) ConfirmPassword(w http.ResponseWriter, r *http.Request) {
	var req confirmPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.auth.ConfirmPassword(r.Context(), req.Email, req.Code, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) ApplyForActivation(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.auth.ApplyForActivation(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.tenant(w, r)
	if !ok {
		return
	}

	user, err := h.auth.Me(r.Context(), tc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) Business(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.tenant(w, r)
	if !ok {
		return
	}

	business, err := h.auth.Business(r.Context(), tc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.tenant(w, r)
	if !ok {
		return
	}

	users, err := h.auth.ListUsers(r.Context(), tc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.tenant(w, r)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(r.Context(), tc, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (service.TenantContext, bool) {
	tc, ok := service.TenantFromContext(r.Context())
	if !ok {
		h.fail(w, r, pkgErrors.New(pkgErrors.ErrUnauthorized, "unauthorized"))
	}
	return tc, ok
}

// decode reads a JSON body into dst and writes a VALIDATION_ERROR on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		details := "malformed JSON body"
		if errors.Is(err, io.EOF) {
			details = "request body is empty"
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			details = "request body too large"
		}
		h.fail(w, r, pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails(details))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := pkgErrors.FromError(err)
	if e.Code == pkgErrors.ErrInternal {
		h.log.Error("request failed",
			logger.CtxField(r.Context()),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	pkgErrors.WriteJSON(w, e)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
