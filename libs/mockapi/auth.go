package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/auth"
)

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	User         *apiclient.User `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "providers": s.cfg.Providers})
}

// login trusts any non-empty code: the mock stands in for the OAuth
// provider. The same (provider, code) pair always maps to the same user.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	req.Code = strings.TrimSpace(req.Code)
	if !slices.Contains(s.cfg.Providers, req.Provider) {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(req.Provider+":"+req.Code)).String()
	user := apiclient.User{
		ID:       id,
		Name:     "Usuário " + req.Provider,
		Email:    "user-" + id[:8] + "@" + req.Provider + ".example",
		Provider: req.Provider,
	}

	s.state.mu.Lock()
	if existing, ok := s.state.users[id]; ok {
		user = existing
	} else {
		s.state.users[id] = user
	}
	s.state.mu.Unlock()

	access, err := s.issueAccessToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	refresh, err := s.issueRefreshToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue refresh token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", User: &user})
}

// refresh rotates: the presented token is revoked and a new pair issued.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}

	now := s.cfg.Now()
	s.state.mu.Lock()
	rec, ok := s.state.refresh[hashToken(req.RefreshToken)]
	if !ok || rec.revokedAt != nil || rec.expiresAt.Before(now) {
		s.state.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	user, ok := s.state.users[rec.userID]
	if !ok {
		s.state.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	rec.revokedAt = &now
	s.state.mu.Unlock()

	refresh, err := s.issueRefreshToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue refresh token")
		return
	}
	access, err := s.issueAccessToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	now := s.cfg.Now()
	s.state.mu.Lock()
	if rec, ok := s.state.refresh[hashToken(strings.TrimSpace(req.RefreshToken))]; ok && rec.revokedAt == nil {
		rec.revokedAt = &now
	}
	s.state.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) issueAccessToken(u apiclient.User) (string, error) {
	now := s.cfg.Now()
	return auth.SignHS256(auth.Claims{
		Sub:      u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Provider: u.Provider,
		Iat:      now.Unix(),
		Exp:      now.Add(s.cfg.AccessTTL).Unix(),
	}, s.cfg.Secret)
}

func (s *Server) issueRefreshToken(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(buf)
	s.state.mu.Lock()
	s.state.refresh[hashToken(raw)] = &refreshRecord{userID: userID, expiresAt: s.cfg.Now().Add(s.cfg.RefreshTTL)}
	s.state.mu.Unlock()
	return raw, nil
}
