package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/middleware"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "photo"

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to a temp file.
const multipartMemory = 8 << 20

type photoResponse struct {
	ID         uuid.UUID  `json:"id"`
	TripID     uuid.UUID  `json:"trip_id"`
	URL        string     `json:"url"`
	CapturedAt *time.Time `json:"captured_at"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Caption    *string    `json:"caption"`
	Tags       []string   `json:"tags"`
	CreatedAt  time.Time  `json:"created_at"`
}

type dayGroupResponse struct {
	Date   string          `json:"date"`
	Photos []photoResponse `json:"photos"`
}

type updateCaptionRequest struct {
	Caption *string `json:"caption"`
}

// UploadPhoto handles POST /api/trips/{id}/photos.
// The file arrives as multipart form field "photo".
func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	up, err := readUpload(r)
	if err != nil {
		if isBodyTooLarge(err) {
			payloadTooLarge(w)
			return
		}
		badRequest(w, err.Error())
		return
	}

	photo, err := s.photos.Upload(r.Context(), middleware.UserIDFromContext(r.Context()), tripID, up)
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusCreated, photoToResponse(photo))
}

// ListTripPhotosByDay handles GET /api/trips/{id}/photos/by-day.
func (s *Server) ListTripPhotosByDay(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	groups, err := s.photos.ListByTripGrouped(r.Context(), middleware.UserIDFromContext(r.Context()), tripID)
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}

	out := make([]dayGroupResponse, len(groups))
	for i, g := range groups {
		out[i] = dayGroupResponse{Date: g.Label, Photos: photosToResponse(g.Photos)}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListMappedPhotos handles GET /api/photos/map.
func (s *Server) ListMappedPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.photos.ListMapped(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "photo")
		return
	}
	writeJSON(w, http.StatusOK, photosToResponse(photos))
}

// GetPhoto handles GET /api/photos/{id}.
func (s *Server) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	photo, err := s.photos.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "photo")
		return
	}
	writeJSON(w, http.StatusOK, photoToResponse(photo))
}

// UpdatePhotoCaption handles PATCH /api/photos/{id}.
// An empty caption clears it.
func (s *Server) UpdatePhotoCaption(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var body updateCaptionRequest
	if !readJSON(w, r, &body) {
		return
	}
	if body.Caption == nil {
		badRequest(w, "caption is required")
		return
	}

	photo, err := s.photos.UpdateCaption(r.Context(), middleware.UserIDFromContext(r.Context()), id, *body.Caption)
	if err != nil {
		writeServiceError(w, r, err, "photo")
		return
	}
	writeJSON(w, http.StatusOK, photoToResponse(photo))
}

// readUpload pulls the uploaded file out of a multipart request.
// An undeclared content type is sniffed from the bytes.
func readUpload(r *http.Request) (domain.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			return domain.Upload{}, err
		}
		return domain.Upload{}, errors.New("expected a multipart/form-data body")
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return domain.Upload{}, errors.New(`multipart field "photo" is required`)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Upload{}, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return domain.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func photoToResponse(p domain.Photo) photoResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return photoResponse{
		ID:         p.ID,
		TripID:     p.TripID,
		URL:        p.ViewURL,
		CapturedAt: p.CapturedAt,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Caption:    p.Caption,
		Tags:       tags,
		CreatedAt:  p.CreatedAt,
	}
}

func photosToResponse(photos []domain.Photo) []photoResponse {
	out := make([]photoResponse, len(photos))
	for i, p := range photos {
		out[i] = photoToResponse(p)
	}
	return out
}
