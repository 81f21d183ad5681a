package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mkoeppel/certpress/pkg/asset"
	"github.com/mkoeppel/certpress/pkg/errors"
	"github.com/mkoeppel/certpress/pkg/namelist"
	"github.com/mkoeppel/certpress/pkg/pipeline"
)

// maxUploadBytes caps template uploads (20 MB).
const maxUploadBytes = 20 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleUploadAsset accepts a template image as a multipart file upload
// or a JSON body naming a remote URL, validates that it decodes, and
// stores it under a fresh asset ID.
func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var err error

	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		data, err = s.readURLUpload(r)
	} else {
		data, err = s.readFileUpload(r)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Reject uploads the render path could not decode later.
	if _, err := asset.DecodeBytes(data); err != nil {
		s.writeError(w, err)
		return
	}

	id := uuid.NewString()
	if err := s.store.Set(r.Context(), id, data, s.cfg.AssetTTL()); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Infof("Stored template %s (%d bytes)", id, len(data))
	s.writeJSON(w, http.StatusCreated, map[string]any{"asset_id": id})
}

func (s *Server) readURLUpload(r *http.Request) ([]byte, error) {
	var req struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	if req.ImageURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image_url is required")
	}
	return asset.FetchBytes(r.Context(), req.ImageURL)
}

func (s *Server) readFileUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing file field")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read upload")
	}
	if len(data) > maxUploadBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "template exceeds %d MB", maxUploadBytes>>20)
	}
	return data, nil
}

// renderRequest is the JSON body for single exports.
type renderRequest struct {
	AssetID      string  `json:"asset_id"`
	Text         string  `json:"text"`
	FontSize     float64 `json:"font_size"`
	Color        string  `json:"color"`
	Font         string  `json:"font"`
	PosX         float64 `json:"pos_x"`
	PosY         float64 `json:"pos_y"`
	DisplayWidth float64 `json:"display_width"`
	Format       string  `json:"format"`
}

func (req renderRequest) options() pipeline.Options {
	return pipeline.Options{
		Text:         req.Text,
		FontSize:     req.FontSize,
		Color:        req.Color,
		Font:         req.Font,
		PosX:         req.PosX,
		PosY:         req.PosY,
		DisplayWidth: req.DisplayWidth,
		Format:       req.Format,
	}
}

// handleRender produces a single certificate from a stored template.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body"))
		return
	}

	opts := req.options()
	// Single mode: a comma list in text would still honor the resolver
	// rules, exactly like the CLI.
	result, err := s.execute(w, r, req.AssetID, opts)
	if err != nil {
		return
	}
	s.writeArtifact(w, result)
}

// handleBatch produces a zipped batch from a CSV upload or a names field.
// Multipart form fields mirror the renderRequest JSON keys.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid multipart form"))
		return
	}

	opts := pipeline.Options{
		Text:         r.FormValue("names"),
		Color:        r.FormValue("color"),
		Font:         r.FormValue("font"),
		FontSize:     formFloat(r, "font_size"),
		PosX:         formFloat(r, "pos_x"),
		PosY:         formFloat(r, "pos_y"),
		DisplayWidth: formFloat(r, "display_width"),
		Format:       r.FormValue("format"),
		ForceBatch:   true,
	}

	if csvFile, _, err := r.FormFile("csv"); err == nil {
		defer csvFile.Close()
		names, _, err := namelist.FromCSV(csvFile)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Names = names
	}

	result, err := s.execute(w, r, r.FormValue("asset_id"), opts)
	if err != nil {
		return
	}
	s.writeArtifact(w, result)
}

// execute loads the stored template into opts and runs the pipeline.
// Errors are already written to w when the returned error is non-nil.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, assetID string, opts pipeline.Options) (*pipeline.Result, error) {
	if assetID == "" {
		err := errors.New(errors.ErrCodeInvalidInput, "asset_id is required")
		s.writeError(w, err)
		return nil, err
	}

	data, err := s.store.Get(r.Context(), assetID)
	if err != nil {
		s.writeError(w, err)
		return nil, err
	}
	opts.ImageData = data

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return nil, err
	}
	if len(result.Skipped) > 0 {
		s.logger.Warnf("Batch skipped %d entries", len(result.Skipped))
	}
	return result, nil
}

func (s *Server) writeArtifact(w http.ResponseWriter, result *pipeline.Result) {
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		s.logger.Errorf("Write artifact: %s", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("Write JSON: %s", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= 500 {
		s.logger.Errorf("Request failed: %s", err)
	}
	s.writeJSON(w, status, map[string]any{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}

// statusForError maps structured error codes to HTTP statuses.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidColor,
		errors.ErrCodeInvalidImage, errors.ErrCodeInvalidNameList:
		return http.StatusBadRequest
	case errors.ErrCodeAssetNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeFontNotFound,
		errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func formFloat(r *http.Request, key string) float64 {
	v, err := strconv.ParseFloat(r.FormValue(key), 64)
	if err != nil {
		return 0
	}
	return v
}
