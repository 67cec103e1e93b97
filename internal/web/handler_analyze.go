package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/service"
)

const (
	maxImageSize = 10 << 20
	// maxFormOverhead covers multipart boundaries and headers around the image.
	maxFormOverhead = 1 << 20
)

// allowedImageTypes is the set of MIME types recognised by sniffing.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
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

// allowedImageMIME returns the detected MIME type and true if the data is a
// recognised image format, or ("", false) otherwise.
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

// imageMIME prefers the sniffed type and falls back to the type the client
// declared for the part.
func imageMIME(data []byte, declared string) string {
	if mime, ok := allowedImageMIME(data); ok {
		return mime
	}
	if declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}

type analyzeResponse struct {
	Analysis analysis.Result `json:"analysis"`
	Coach    string          `json:"coach,omitempty"`
	ImageKey string          `json:"imageKey,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+maxFormOverhead)

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds 10 MiB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	if header.Size > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds 10 MiB limit")
		return
	}

	imageData, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to analyze image")
		s.logger.Error("read upload failed", "error", err)
		return
	}
	if len(imageData) > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds 10 MiB limit")
		return
	}

	mimeType := imageMIME(imageData, header.Header.Get("Content-Type"))

	out, err := s.service.Analyze(r.Context(), imageData, mimeType)
	switch {
	case errors.Is(err, service.ErrNoImage):
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	case errors.Is(err, service.ErrInvalidFormat):
		s.logger.Error("analyze failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Invalid response format from AI")
		return
	case err != nil:
		s.logger.Error("analyze failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to analyze image")
		return
	}

	resp := analyzeResponse{Analysis: out.Result}
	if _, ok := out.Result.(analysis.FoodResult); ok {
		resp.Coach = out.Coach
		resp.ImageKey = out.ImageKey
	}
	writeJSON(w, http.StatusOK, resp)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
