package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/services"
	"fixmyarea-be/storage"
)

const multipartOverhead = 1 << 20

type ComplaintController struct {
	complaints    *services.ComplaintService
	maxPhotoBytes int64
	log           *zap.Logger
}

func NewComplaintController(complaints *services.ComplaintService, maxPhotoBytes int64, log *zap.Logger) *ComplaintController {
	return &ComplaintController{complaints: complaints, maxPhotoBytes: maxPhotoBytes, log: log}
}

// Create handles POST /api/complaints (multipart form with a "photo" file)
func (h *ComplaintController) Create(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoBytes+multipartOverhead)

	lat, err := formFloat(c, "lat")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	lng, err := formFloat(c, "lng")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	input := services.CreateComplaintInput{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Category:    c.PostForm("category"),
		Lat:         lat,
		Lng:         lng,
		Address:     strings.TrimSpace(c.PostForm("address")),
		State:       c.PostForm("state"),
		District:    c.PostForm("district"),
		Village:     c.PostForm("village"),
	}

	photo, closePhoto, err := h.photo(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer closePhoto()

	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.Create(ctx, caller, input, photo)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

// photo opens the optional "photo" form file. A missing file yields nil.
func (h *ComplaintController) photo(c *gin.Context) (*storage.Photo, func(), error) {
	noop := func() {}

	header, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, apperrors.Validation("Invalid multipart form", map[string]string{"photo": err.Error()})
	}
	if header.Size > h.maxPhotoBytes {
		return nil, noop, apperrors.Validation("Photo is too large", map[string]string{"photo": "exceeds " + strconv.FormatInt(h.maxPhotoBytes, 10) + " bytes"})
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, noop, apperrors.Validation("Photo must be an image", map[string]string{"photo": "must be an image"})
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, apperrors.Validation("Unable to read photo", map[string]string{"photo": err.Error()})
	}
	return photoFrom(header, file), func() { file.Close() }, nil
}

func photoFrom(header *multipart.FileHeader, file multipart.File) *storage.Photo {
	return &storage.Photo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

func formFloat(c *gin.Context, field string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.Validation(field+" must be a number", map[string]string{field: "must be a number"})
	}
	return &v, nil
}

// Public handles GET /api/complaints/public
func (h *ComplaintController) Public(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	complaints, err := h.complaints.ListPublic(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

// Counts handles GET /api/complaints/counts
func (h *ComplaintController) Counts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	counts, err := h.complaints.Counts(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// Mine handles GET /api/complaints/me
func (h *ComplaintController) Mine(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	complaints, err := h.complaints.ListByCreator(ctx, caller)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

// Assigned handles GET /api/complaints/assigned
func (h *ComplaintController) Assigned(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	complaints, err := h.complaints.ListByAssignee(ctx, caller)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

// Categories handles GET /api/complaints/analytics/categories
func (h *ComplaintController) Categories(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	counts, err := h.complaints.CountsByCategory(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ByVillage handles GET /api/complaints/by-village
func (h *ComplaintController) ByVillage(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	groups, err := h.complaints.GroupByVillage(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// WorkerUpdates handles GET /api/complaints/worker-updates/:complaintId
func (h *ComplaintController) WorkerUpdates(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	updates, err := h.complaints.Timeline(ctx, c.Param("complaintId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updates)
}

// Get handles GET /api/complaints/:id
func (h *ComplaintController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// Assign handles PUT /api/complaints/:id/assign
func (h *ComplaintController) Assign(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	var input struct {
		WorkerID string `json:"workerId"`
	}
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.Assign(ctx, caller, c.Param("id"), input.WorkerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// UpdateStatus handles PUT /api/complaints/:id/status. Workers send a
// multipart form when attaching a proof photo, JSON otherwise.
func (h *ComplaintController) UpdateStatus(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	var (
		input services.ProgressInput
		photo *storage.Photo
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoBytes+multipartOverhead)
		input.Status = c.PostForm("status")
		input.UpdateText = strings.TrimSpace(c.PostForm("updateText"))

		p, closePhoto, err := h.photo(c)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		defer closePhoto()
		photo = p
	} else if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.RecordProgress(ctx, caller, c.Param("id"), input, photo)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// Upvote handles PUT /api/complaints/:id/upvote
func (h *ComplaintController) Upvote(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.Upvote(ctx, caller, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}
