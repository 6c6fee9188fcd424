package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stitchpoint/prodplan-backend/internal/http/response"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/services"
)

type UploadHandler struct {
	log    *logger.Logger
	upload services.UploadService
}

func NewUploadHandler(log *logger.Logger, upload services.UploadService) *UploadHandler {
	return &UploadHandler{log: log.With("handler", "UploadHandler"), upload: upload}
}

// POST /api/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.log.Error("Cannot open uploaded file", "filename", fh.Filename, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "upload_read_failed", err)
		return
	}
	defer f.Close()

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, size, err := h.upload.Accept(dbc, fh.Filename, f)
	if err != nil {
		var ffe *apperr.FileFormatError
		if errors.As(err, &ffe) {
			response.RespondError(c, http.StatusBadRequest, "invalid_file_type", err)
			return
		}
		h.log.Error("Upload failed", "filename", fh.Filename, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}

	response.RespondAccepted(c, gin.H{
		"message":  "File received successfully",
		"filename": job.Filename,
		"size":     size,
		"task_id":  job.ID.String(),
		"status":   "processing",
	})
}
