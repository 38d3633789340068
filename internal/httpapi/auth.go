package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/audit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	sess, err := s.gateway.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login rejected", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusUnauthorized, userMessage(err, "invalid credentials"))
		return
	}
	if err := s.sessions.Set(sess); err != nil {
		s.logger.Error("session persist failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not persist session")
		return
	}

	s.record(r.Context(), audit.ActionLogin, sess.Operator.ID, map[string]string{"email": sess.Operator.Email})
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	actorID := ""
	if sess, err := s.sessions.Get(); err == nil {
		actorID = sess.Operator.ID
	}
	s.record(r.Context(), audit.ActionLogout, actorID, nil)

	if err := s.sessions.Clear(); err != nil {
		s.logger.Error("session clear failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not clear session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// userMessage prefers the backend-provided message when the error carries
// one, falling back to the given default.
func userMessage(err error, fallback string) string {
	var m interface{ UserMessage() string }
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return fallback
}
