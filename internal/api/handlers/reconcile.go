package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/orderrecon/internal/api/dto"
	"github.com/eshaffer321/orderrecon/internal/application/service"
	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// Multipart field names used by the upload form.
const (
	FieldPOSFile    = "posFile"
	FieldSourceFile = "sourceFile"
	FieldPOSType    = "posType"
	FieldSourceType = "sourceType"
)

// ReconcileHandler handles uploads and platform listing.
type ReconcileHandler struct {
	svc      *service.ReconcileService
	maxBytes int64
}

// NewReconcileHandler creates a handler. maxBytes caps the request body;
// zero means no cap.
func NewReconcileHandler(svc *service.ReconcileService, maxBytes int64) *ReconcileHandler {
	return &ReconcileHandler{svc: svc, maxBytes: maxBytes}
}

// Compare reconciles one POS export against one or more source exports.
func (h *ReconcileHandler) Compare(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.BadRequestError("expected multipart form upload: "+err.Error()))
		return
	}

	posHeaders := form.File[FieldPOSFile]
	if len(posHeaders) != 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.BadRequestError("exactly one posFile is required"))
		return
	}
	sourceHeaders := form.File[FieldSourceFile]
	if len(sourceHeaders) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.BadRequestError("at least one sourceFile is required"))
		return
	}

	req := service.Request{
		POSType:    c.PostForm(FieldPOSType),
		SourceType: c.PostForm(FieldSourceType),
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	open := func(fh *multipart.FileHeader) (service.File, error) {
		f, err := fh.Open()
		if err != nil {
			return service.File{}, fmt.Errorf("%w: cannot open %s", service.ErrInvalidRequest, fh.Filename)
		}
		opened = append(opened, f)
		return service.File{Name: fh.Filename, Reader: f}, nil
	}

	if req.POS, err = open(posHeaders[0]); err != nil {
		WriteError(c, err)
		return
	}
	for _, fh := range sourceHeaders {
		f, err := open(fh)
		if err != nil {
			WriteError(c, err)
			return
		}
		req.Sources = append(req.Sources, f)
	}

	res, err := h.svc.Reconcile(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{RunID: res.RunID, Outcome: res.Outcome})
}

// Platforms lists the supported POS and source platforms.
func (h *ReconcileHandler) Platforms(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PlatformListResponse{
		POS:    dto.ToPlatformResponses(h.svc.Platforms(record.OriginPOS)),
		Source: dto.ToPlatformResponses(h.svc.Platforms(record.OriginSource)),
	})
}
