package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"greentrack/internal/scan"
	"greentrack/pkg/types"
	"io"
	"net/http"
)

// scanForm is the non-file part of a scan upload.
type scanForm struct {
	Latitude     *float64 `form:"latitude"`
	Longitude    *float64 `form:"longitude"`
	Address      *string  `form:"address"`
	Area         *string  `form:"area"`
	City         *string  `form:"city"`
	State        *string  `form:"state"`
	DeviceInfo   string   `form:"device_info"`
	AppVersion   string   `form:"app_version"`
	ScanDuration int      `form:"scan_duration"`
}

func (f scanForm) location() types.ScanLocation {
	return types.ScanLocation{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Address:   f.Address,
		Area:      f.Area,
		City:      f.City,
		State:     f.State,
	}
}

func (f scanForm) metadata() types.ScanMetadata {
	return types.ScanMetadata{
		DeviceInfo:   f.DeviceInfo,
		AppVersion:   f.AppVersion,
		ScanDuration: f.ScanDuration,
	}
}

type scanListQuery struct {
	Page      uint64               `form:"page"`
	Limit     uint64               `form:"limit"`
	WasteType *types.WasteCategory `form:"wasteType"`
	Verified  *bool                `form:"verified"`
}

type timeframeQuery struct {
	Timeframe string `form:"timeframe"`
	Limit     uint64 `form:"limit"`
}

type reportRequest struct {
	Reason string `json:"reason"`
}

func validateLocation(l types.ScanLocation) error {
	if (l.Latitude == nil) != (l.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be supplied together", types.ErrInvalidInput)
	}
	if l.Latitude != nil && (*l.Latitude < -90 || *l.Latitude > 90) {
		return fmt.Errorf("%w: latitude out of range", types.ErrInvalidInput)
	}
	if l.Longitude != nil && (*l.Longitude < -180 || *l.Longitude > 180) {
		return fmt.Errorf("%w: longitude out of range", types.ErrInvalidInput)
	}
	return nil
}

func (s *Service) handlePostScan(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, "image is too large", nil)
			return
		}
		s.fail(w, http.StatusBadRequest, "invalid multipart payload", nil)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "image file is required", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.config.MaxUploadBytes+1))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "failed to read image", nil)
		return
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		s.fail(w, http.StatusRequestEntityTooLarge, "image is too large", nil)
		return
	}

	contentType := http.DetectContentType(data)
	if !isImageType(contentType) {
		s.fail(w, http.StatusBadRequest, "only image files are allowed", nil)
		return
	}

	var fields scanForm
	if err := decoder.Decode(&fields, r.MultipartForm.Value); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid scan fields", nil)
		return
	}

	location := fields.location()
	if err := validateLocation(location); err != nil {
		s.handleError(w, r, err, "invalid scan location")
		return
	}

	if _, err := s.ensureUser(ctx, userID); err != nil {
		s.handleError(w, r, err, "failed to load user for scan")
		return
	}

	outcome, err := s.scans.Submit(ctx, &scan.Submission{
		UserID:      userID,
		Image:       data,
		Filename:    header.Filename,
		ContentType: contentType,
		Location:    location,
		Metadata:    fields.metadata(),
	})
	if err != nil {
		s.handleError(w, r, err, "failed to process scan")
		return
	}

	s.respond(w, http.StatusCreated, "waste scan completed successfully", outcome)
}

func isImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func (s *Service) handleGetScans(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var query scanListQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}

	scans, pagination, err := s.scans.List(ctx, types.ScanFilter{
		UserID:    userID,
		WasteType: query.WasteType,
		Verified:  query.Verified,
		Page:      query.Page,
		Limit:     query.Limit,
	})
	if err != nil {
		s.handleError(w, r, err, "failed to list scans")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{
		"scans":      scans,
		"pagination": pagination,
	})
}

func (s *Service) handleGetScanStatistics(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var query timeframeQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}
	if query.Timeframe == "" {
		query.Timeframe = scan.DefaultTimeframe
	}

	stats, err := s.scans.Statistics(ctx, userID, query.Timeframe)
	if err != nil {
		s.handleError(w, r, err, "failed to load scan statistics")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{
		"statistics": stats,
		"timeframe":  query.Timeframe,
	})
}

func (s *Service) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	var query timeframeQuery
	if err := decoder.Decode(&query, r.URL.Query()); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}
	if query.Timeframe == "" {
		query.Timeframe = scan.DefaultTimeframe
	}

	rows, err := s.scans.Leaderboard(r.Context(), query.Timeframe, query.Limit)
	if err != nil {
		s.handleError(w, r, err, "failed to load leaderboard")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{
		"leaderboard": rows,
		"timeframe":   query.Timeframe,
	})
}

func (s *Service) handleGetScan(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	found, err := s.scans.Get(ctx, userID, r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err, "failed to load scan")
		return
	}

	s.respond(w, http.StatusOK, "", map[string]any{"scan": found})
}

func (s *Service) handlePutScanReport(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	reported, err := s.scans.Report(ctx, userID, r.PathValue("id"), req.Reason)
	if err != nil {
		s.handleError(w, r, err, "failed to report scan")
		return
	}

	s.respond(w, http.StatusOK, "issue reported successfully", map[string]any{"scan": reported})
}

func (s *Service) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.fail(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := s.scans.Delete(ctx, userID, r.PathValue("id")); err != nil {
		s.handleError(w, r, err, "failed to delete scan")
		return
	}

	s.respond(w, http.StatusOK, "scan deleted successfully", nil)
}
