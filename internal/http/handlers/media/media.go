package media

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	mediaService "github.com/savcinema/voicereview-service/internal/services/media"
	"github.com/savcinema/voicereview-service/internal/utils/response"
)

type MediaHandlers struct {
	mediaService *mediaService.Service
}

type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"required,min=1"`
}

type UploadURLResponse struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(mediaService *mediaService.Service) *MediaHandlers {
	return &MediaHandlers{
		mediaService: mediaService,
	}
}

// GenerateUploadURL generates a presigned URL for a review recording upload
// @Summary Generate presigned upload URL
// @Description Generate a presigned URL the client PUTs the recording to
// @Tags media
// @Accept json
// @Produce json
// @Param request body UploadURLRequest true "Upload URL request"
// @Success 200 {object} UploadURLResponse "Upload URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /public/upload-url [post]
func (h *MediaHandlers) GenerateUploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UploadURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if req.FileSize > h.mediaService.MaxFileSize() {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("file size exceeds limit")))
			return
		}

		uploadInfo, err := h.mediaService.GeneratePresignedUploadURL(req.ContentType)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		resp := UploadURLResponse{
			ObjectKey:   uploadInfo.ObjectKey,
			UploadURL:   uploadInfo.UploadURL,
			ExpiresAt:   uploadInfo.ExpiresAt,
			MaxFileSize: uploadInfo.MaxFileSize,
			ContentType: uploadInfo.ContentType,
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated successfully", resp))
	}
}
