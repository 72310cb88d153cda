package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellnesshub/internal/app"
	"wellnesshub/internal/transport/http/response"
)

// AssetHandler accepts session JSON files and hands back the URL to store
// as json_file_url.
type AssetHandler struct {
	assetService *app.AssetService
	log          *slog.Logger
}

func NewAssetHandler(assetService *app.AssetService, log *slog.Logger) *AssetHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AssetHandler{assetService: assetService, log: log}
}

func (h *AssetHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}
	if !h.assetService.Enabled() {
		writeError(c, h.log, app.ErrAssetsDisabled, "upload session file")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, h.log, err, "open upload")
		return
	}
	defer file.Close()

	result, err := h.assetService.UploadSessionFile(c.Request.Context(), app.UploadInput{
		UserID:   userID,
		Filename: fileHeader.Filename,
		Body:     file,
	})
	if err != nil {
		writeError(c, h.log, err, "upload session file")
		return
	}
	response.OK(c, result)
}
