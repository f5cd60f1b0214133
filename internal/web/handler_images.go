package web

import (
	"io"
	"net/http"

	"github.com/vbonduro/glassinv/internal/domain"
)

const maxImageSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing standard (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// handleUploadImage accepts a multipart form with an "image" file. The owner
// defaults to standalone when owner_kind is absent.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1024*1024)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		s.badRequest(w, "failed to parse form")
		return
	}

	kind := r.FormValue("owner_kind")
	if kind == "" {
		kind = string(domain.OwnerStandalone)
	}
	owner, err := domain.ParseOwner(kind, r.FormValue("owner_id"))
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	imageType := domain.ImageType(r.FormValue("image_type"))
	switch imageType {
	case "", domain.ImageTypePrimary, domain.ImageTypeAlternate:
	default:
		s.badRequest(w, "invalid image type")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.badRequest(w, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "owner", owner.String(), "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to read file"})
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		s.badRequest(w, "unsupported image format")
		return
	}

	img, err := s.images.SaveImage(r.Context(), owner, imageType, imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toImageView(img))
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	img, reader, err := s.images.LoadImage(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	w.Header().Set("Content-Type", img.MimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write image failed", "id", id, "error", err)
	}
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := s.images.DeleteImage(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
