package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/process/pipeline"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type presetRequest struct {
	UserID      string `json:"user_id"`
	Preset      string `json:"preset"`
	MoodDefault string `json:"mood_default"`
}

type presetSaved struct {
	OK     bool   `json:"ok"`
	UserID string `json:"user_id"`
	Preset string `json:"preset"`
}

type presetView struct {
	UserID      string  `json:"user_id"`
	Preset      string  `json:"preset"`
	MoodDefault *string `json:"mood_default"`
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	if !s.allowRequest(getClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, detailTooManyRequests)
		return
	}

	var in domain.DiaryInput

	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}

	if headerUser := strings.TrimSpace(r.Header.Get(headerUserID)); headerUser != "" {
		in.UserID = headerUser
	}

	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.deps.Pipeline.Process(r.Context(), pipeline.Request{
		Input:          in,
		PresetOverride: strings.TrimSpace(r.Header.Get(headerPreset)),
		RequestID:      RequestID(r.Context()),
	})
	if err != nil {
		s.logger.Error().Err(err).Str(logFieldRequestID, RequestID(r.Context())).Msg("diary reply failed")

		if errors.Is(err, errors.ErrGenerationUnavailable) {
			writeError(w, http.StatusInternalServerError, detailGenerationFailed)
			return
		}

		writeError(w, http.StatusInternalServerError, detailInternal)

		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Logs == nil {
		writeError(w, http.StatusServiceUnavailable, detailStorageDisabled)
		return
	}

	limit := defaultLogLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLogLimit {
			writeError(w, http.StatusBadRequest, detailInvalidLimit)
			return
		}

		limit = n
	}

	logs, err := s.deps.Logs.ListDiaryLogs(r.Context(), strings.TrimSpace(r.URL.Query().Get("user_id")), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list diary logs")
		writeError(w, http.StatusInternalServerError, detailInternal)

		return
	}

	if logs == nil {
		logs = []domain.DiaryLog{}
	}

	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleSetPreset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Presets == nil {
		writeError(w, http.StatusServiceUnavailable, detailStorageDisabled)
		return
	}

	var body presetRequest

	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, detailInvalidBody)
		return
	}

	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		writeError(w, http.StatusBadRequest, detailUserIDRequired)
		return
	}

	preset, err := domain.NormalizePreset(body.Preset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.deps.Presets.UpsertUserPreset(r.Context(), &domain.UserPreset{
		UserID:      userID,
		Preset:      preset,
		MoodDefault: strings.TrimSpace(body.MoodDefault),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to save preset")
		writeError(w, http.StatusInternalServerError, detailInternal)

		return
	}

	writeJSON(w, http.StatusOK, presetSaved{OK: true, UserID: userID, Preset: preset})
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Presets == nil {
		writeError(w, http.StatusServiceUnavailable, detailStorageDisabled)
		return
	}

	userID := r.PathValue("user_id")

	p, err := s.deps.Presets.GetUserPreset(r.Context(), userID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeError(w, http.StatusNotFound, detailPresetNotFound)
			return
		}

		s.logger.Error().Err(err).Msg("failed to load preset")
		writeError(w, http.StatusInternalServerError, detailInternal)

		return
	}

	view := presetView{UserID: userID, Preset: p.Preset}
	if p.MoodDefault != "" {
		view.MoodDefault = &p.MoodDefault
	}

	writeJSON(w, http.StatusOK, view)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)

	//nolint:errcheck // client may have gone away
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorResponse{Detail: detail})
}
