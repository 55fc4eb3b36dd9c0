package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/service"
)

const (
	maxDocumentSize = 5 << 20
	maxUploadSize   = 4*maxDocumentSize + 1<<20
)

type ProfileHandler struct {
	profiles service.ProfileService
	bookings service.BookingService
	now      func() time.Time
}

func NewProfileHandler(profiles service.ProfileService, bookings service.BookingService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, bookings: bookings, now: time.Now}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetProfile(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.profiles.UpdateProfile(r.Context(), SessionIDFromContext(r.Context()), update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// UploadDocuments accepts any of the four document slots as multipart files.
func (h *ProfileHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload, each document must be under 5 MB")
		return
	}

	files := make(map[domain.DocumentSlot]domain.DocumentFile)
	for _, slot := range domain.DocumentSlots {
		f, err := readDocument(r, slot)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		files[slot] = f
	}

	user, err := h.profiles.UploadDocuments(r.Context(), SessionIDFromContext(r.Context()), files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func readDocument(r *http.Request, slot domain.DocumentSlot) (domain.DocumentFile, error) {
	file, header, err := r.FormFile(string(slot))
	if err != nil {
		return domain.DocumentFile{}, err
	}
	defer file.Close()
	if header.Size > maxDocumentSize {
		return domain.DocumentFile{}, errors.New("each document must be under 5 MB")
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return domain.DocumentFile{}, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	return domain.DocumentFile{Filename: header.Filename, ContentType: contentType, Content: content}, nil
}

func (h *ProfileHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	filter := domain.ParseBookingFilter(r.URL.Query().Get("filter"))
	bookings, err := h.bookings.ListMyBookings(r.Context(), SessionIDFromContext(r.Context()), filter, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, bookings)
}
