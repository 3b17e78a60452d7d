package web

import (
	"encoding/json"
	"net/http"

	"inventario/internal/core"
	"inventario/internal/logging"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, core.BadRequest("cuerpo JSON inválido"))
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("user registered", "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

// handleLoginForm accepts form-encoded credentials, the way OAuth2
// password flows post them.
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, core.BadRequest("formulario inválido"))
		return
	}
	s.login(w, r, credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
}

func (s *Server) handleLoginJSON(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.respondError(w, r, core.BadRequest("cuerpo JSON inválido"))
		return
	}
	s.login(w, r, creds)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, creds credentials) {
	user, err := s.users.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable", "unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
