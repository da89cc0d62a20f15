package handler

import (
	"net/http"

	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	authService service.AuthService
}

func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.registerUser).Methods("POST", "OPTIONS")
	router.HandleFunc("/login", h.loginUser).Methods("POST", "OPTIONS")
}

// RegisterPrivateRoutes маршруты за Authenticator.
func (h *UserHandler) RegisterPrivateRoutes(private *mux.Router) {
	private.HandleFunc("/logout", h.logoutUser).Methods("POST", "OPTIONS")
	private.HandleFunc("/me", h.getMe).Methods("GET", "OPTIONS")
	private.HandleFunc("/me/display-name", h.updateDisplayName).Methods("PUT", "OPTIONS")
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type DisplayNameRequest struct {
	DisplayName string `json:"displayName"`
}

// @Summary Register
// @Description Register an account and open a session
// @ID register
// @Tags auth
// @Accept json
// @Produce json
// @Param registerData body RegisterRequest true "Register data"
// @Success 201 {object} model.Session
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /register [post]
func (h *UserHandler) registerUser(w http.ResponseWriter, r *http.Request) {
	var request RegisterRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	session, err := h.authService.Register(r.Context(), request.Email, request.Password, request.DisplayName)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, session)
}

// @Summary Login
// @Description Log into account
// @ID login
// @Tags auth
// @Accept json
// @Produce json
// @Param loginData body LoginRequest true "Login data"
// @Success 200 {object} model.Session
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /login [post]
func (h *UserHandler) loginUser(w http.ResponseWriter, r *http.Request) {
	var request LoginRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	session, err := h.authService.LogIn(r.Context(), request.Email, request.Password)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, session)
}

// @Summary Logout
// @Description Close the current session
// @ID logout
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.ErrorResponse
// @Router /logout [post]
func (h *UserHandler) logoutUser(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	h.authService.LogOut(r.Context(), session.Token)
	httputils.ResponseNoContent(w)
}

// @Summary Current user
// @Description Session user from the session mirror
// @ID get-me
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.SessionUser
// @Failure 401 {object} response.ErrorResponse
// @Router /me [get]
func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	user, err := h.authService.LoggedInUser(r.Context(), session.Token)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, user)
}

// @Summary Update display name
// @ID update-display-name
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param data body DisplayNameRequest true "New display name"
// @Success 200 {object} model.SessionUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /me/display-name [put]
func (h *UserHandler) updateDisplayName(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var request DisplayNameRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.authService.UpdateDisplayName(r.Context(), session.Token, request.DisplayName)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, user)
}
