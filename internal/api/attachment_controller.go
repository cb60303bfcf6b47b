package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/service"
)

// AttachmentController serves attachment upload and download.
type AttachmentController struct {
	attachments *service.AttachmentService
}

// NewAttachmentController creates an attachment controller.
func NewAttachmentController(attachments *service.AttachmentService) *AttachmentController {
	return &AttachmentController{attachments: attachments}
}

// Upload stores a multipart file against the work order.
// @Summary Upload attachment
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "work order ID"
// @Param file formData file true "file"
// @Success 201 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/workorders/{id}/attachments [post]
func (ctl *AttachmentController) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid request", "missing file field")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := ctl.attachments.Upload(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		contentType,
		fileHeader.Size,
		file,
	)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, attachment)
}

// List lists the order's attachments.
// @Summary List attachments
// @Tags attachments
// @Produce json
// @Param id path string true "work order ID"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/attachments [get]
func (ctl *AttachmentController) List(c *gin.Context) {
	attachments, err := ctl.attachments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, attachments)
}

// Download streams one attachment.
// @Summary Download attachment
// @Tags attachments
// @Produce octet-stream
// @Param attachment_id path string true "attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/attachments/{attachment_id} [get]
func (ctl *AttachmentController) Download(c *gin.Context) {
	attachment, body, err := ctl.attachments.Download(c.Request.Context(), c.Param("attachment_id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+attachment.FileName+`"`)
	c.Header("Content-Type", attachment.ContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}
