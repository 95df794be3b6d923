package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/validate"
)

const maxUploadBytes = 5 << 20

func (s *Server) getUIConfig(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	cfg := apiclient.UIConfig{Colors: make(apiclient.Palette, len(s.state.ui.Colors)), LogoURL: s.state.ui.LogoURL}
	for k, v := range s.state.ui.Colors {
		cfg.Colors[k] = v
	}
	s.state.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": cfg})
}

// putUIConfig merges the submitted palette into the stored one.
func (s *Server) putUIConfig(w http.ResponseWriter, r *http.Request, _ string) {
	var in apiclient.UIConfig
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	for name, hex := range in.Colors {
		if !validate.HexColor(hex) {
			writeError(w, http.StatusBadRequest, "color "+name+" must be a #RRGGBB value")
			return
		}
	}
	if in.LogoURL != "" && !validate.URL(in.LogoURL) {
		writeError(w, http.StatusBadRequest, "logo_url must be an http or https URL")
		return
	}

	s.state.mu.Lock()
	for name, hex := range in.Colors {
		s.state.ui.Colors[name] = hex
	}
	if in.LogoURL != "" {
		s.state.ui.LogoURL = in.LogoURL
	}
	s.state.mu.Unlock()
	writeJSON(w, http.StatusOK, apiclient.Envelope{Success: true, Message: "ui config updated"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, _ string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(hdr.Filename))
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	s.state.mu.Lock()
	s.state.uploads[name] = upload{contentType: contentType, data: data}
	s.state.mu.Unlock()

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	url := scheme + "://" + r.Host + s.cfg.BasePath + "/uploads/" + name
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": url})
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	up, ok := s.state.uploads[r.PathValue("name")]
	s.state.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", up.contentType)
	_, _ = w.Write(up.data)
}
