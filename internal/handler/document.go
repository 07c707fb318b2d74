package handler

import (
	"tichmi/internal/dto"
	"tichmi/internal/logger"
	"tichmi/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DocumentHandler handles reference-document uploads.
type DocumentHandler struct {
	loader *service.DocumentLoader
}

// NewDocumentHandler creates a new DocumentHandler instance.
func NewDocumentHandler(loader *service.DocumentLoader) *DocumentHandler {
	return &DocumentHandler{loader: loader}
}

// UploadDocument godoc
// @Summary Upload a reference document
// @Description Validates the file's media type and returns its base64-encoded payload for use in quiz generation
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF or document file"
// @Success 200 {object} dto.DocumentPayloadResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /documents [post]
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file field is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer f.Close()

	payload, err := h.loader.Load(fileHeader.Header.Get("Content-Type"), f)
	if err != nil {
		return err
	}

	logger.Get().Info("Document encoded",
		zap.String("filename", fileHeader.Filename),
		zap.String("mime_type", payload.MIMEType),
		zap.Int64("size_bytes", fileHeader.Size))

	return c.JSON(dto.DocumentPayloadResponse{
		Payload:  payload.Payload,
		MIMEType: payload.MIMEType,
	})
}
