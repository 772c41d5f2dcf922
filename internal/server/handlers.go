package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// handleProcess accepts a multipart upload in the "file" field and runs the
// extraction pipeline over it.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// cap the whole request a little above the per-file limit so oversize
	// uploads fail the quota check with a useful message, not a broken read
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFileBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, common.NewValidationError("request body exceeds the upload limit"))
			return
		}
		s.writeError(w, r, common.NewValidationError("missing multipart field \"file\""))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, common.NewValidationError("unreadable upload: "+err.Error()))
		return
	}

	result, err := s.imports.ProcessImport(r.Context(), uid, header.Filename, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type matchRequest struct {
	Records []entity.ImportRecord `json:"records"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Records) == 0 {
		s.writeError(w, r, common.NewValidationError("records must not be empty"))
		return
	}

	result, err := s.matches.FindMatches(r.Context(), req.Records)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type confirmRequest struct {
	Selections []entity.Selection `json:"selections"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Selections) == 0 {
		s.writeError(w, r, common.NewValidationError("selections must not be empty"))
		return
	}

	result, err := s.confirm.ConfirmImport(r.Context(), uid, req.Selections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.quota.GetUserQuota(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}
