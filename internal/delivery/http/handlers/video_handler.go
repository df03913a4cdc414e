package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"video-processor/internal/domain/dto"
	"video-processor/internal/domain/mapper"
	"video-processor/internal/usecases"
	"video-processor/pkg/errors"
)

type VideoHandler struct {
	service usecases.VideoService
	logger  *zap.Logger
}

func NewVideoHandler(service usecases.VideoService, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{service: service, logger: logger}
}

// Enqueue
//
// @Summary      Enqueue transcode job
// @Description  Queues a transcode of a document's video with the given preset
// @Tags         Video Queue
// @Accept       json
// @Produce      json
// @Param        body  body      usecases.EnqueueRequest  true  "Job"
// @Success      202   {object}  dto.EnqueueResponse
// @Failure      400   {object}  dto.ErrorResponse "Validation error or unknown preset"
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse "Document not found"
// @Failure      500   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /video-queue/enqueue [post]
func (h *VideoHandler) Enqueue(c *fiber.Ctx) error {
	var req usecases.EnqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleError(c, h.logger, errors.ErrValidation("Invalid request body.", err))
	}
	req.Authorization = c.Get(fiber.HeaderAuthorization)

	res, err := h.service.Enqueue(c.UserContext(), req)
	if err != nil {
		return errors.HandleError(c, h.logger, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(mapper.EnqueueResultToDTO(res.ID, res.State))
}

// Status
//
// @Summary      Job status
// @Description  Returns the queue state and progress of a job
// @Tags         Video Queue
// @Produce      json
// @Param        jobId  path      string  true  "Job ID"
// @Success      200    {object}  dto.JobStatusResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse "Job not found"
// @Failure      500    {object}  dto.ErrorResponse
// @Router       /video-queue/status/{jobId} [get]
func (h *VideoHandler) Status(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return errors.HandleError(c, h.logger, err)
	}
	return c.JSON(mapper.JobStatusToDTO(status.ID, status.State, status.Progress))
}

// RemoveVariant
//
// @Summary      Remove variant
// @Description  Deletes a variant file and drops it from the document
// @Tags         Video Queue
// @Accept       json
// @Produce      json
// @Param        body  body      usecases.RemoveVariantRequest  true  "Variant selector"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse "No selector or path outside allowed directories"
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /video-queue/remove-variant [post]
func (h *VideoHandler) RemoveVariant(c *fiber.Ctx) error {
	var req usecases.RemoveVariantRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleError(c, h.logger, errors.ErrValidation("Invalid request body.", err))
	}
	req.Authorization = c.Get(fiber.HeaderAuthorization)

	doc, err := h.service.RemoveVariant(c.UserContext(), req)
	if err != nil {
		return errors.HandleError(c, h.logger, err)
	}
	return c.JSON(dto.DocumentResponse{Success: true, Doc: doc})
}

// ReplaceOriginal
//
// @Summary      Replace original
// @Description  Promotes a variant to be the document's original file
// @Tags         Video Queue
// @Accept       json
// @Produce      json
// @Param        body  body      usecases.ReplaceOriginalRequest  true  "Variant selector"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse "No variants or unresolvable path"
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /video-queue/replace-original [post]
func (h *VideoHandler) ReplaceOriginal(c *fiber.Ctx) error {
	var req usecases.ReplaceOriginalRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleError(c, h.logger, errors.ErrValidation("Invalid request body.", err))
	}
	req.Authorization = c.Get(fiber.HeaderAuthorization)

	doc, err := h.service.ReplaceOriginal(c.UserContext(), req)
	if err != nil {
		return errors.HandleError(c, h.logger, err)
	}
	return c.JSON(dto.DocumentResponse{Success: true, Doc: doc})
}

// CreateDocument
//
// @Summary      Register video document
// @Description  Registers a file already stored on disk. New videos may be queued automatically.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        collection  path      string                     true  "Collection slug"
// @Param        body        body      dto.CreateVideoRequestDTO  true  "Document"
// @Success      201         {object}  dto.DocumentResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      403         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse "Unknown collection"
// @Failure      500         {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /{collection} [post]
func (h *VideoHandler) CreateDocument(c *fiber.Ctx) error {
	var req dto.CreateVideoRequestDTO
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleError(c, h.logger, errors.ErrValidation("Invalid request body.", err))
	}
	collection := c.Params("collection")

	doc, err := h.service.CreateDocument(c.UserContext(), collection, c.Get(fiber.HeaderAuthorization), mapper.VideoFromCreateRequest(collection, req))
	if err != nil {
		return errors.HandleError(c, h.logger, err)
	}
	h.service.AfterRead(doc, requestOrigin(c))
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentResponse{Success: true, Doc: doc})
}

// GetDocument
//
// @Summary      Get video document
// @Description  Returns a document with its playback sources and poster
// @Tags         Documents
// @Produce      json
// @Param        collection  path      string  true  "Collection slug"
// @Param        id          path      string  true  "Document ID"
// @Success      200         {object}  entities.Video
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /{collection}/{id} [get]
func (h *VideoHandler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.service.GetDocument(c.UserContext(), c.Params("collection"), c.Params("id"), requestOrigin(c))
	if err != nil {
		return errors.HandleError(c, h.logger, err)
	}
	return c.JSON(doc)
}

// requestOrigin is scheme://host of the request, honouring proxy headers.
func requestOrigin(c *fiber.Ctx) string {
	proto := c.Get(fiber.HeaderXForwardedProto)
	if proto == "" {
		proto = c.Protocol()
	}
	host := c.Get(fiber.HeaderXForwardedHost)
	if host == "" {
		host = c.Get(fiber.HeaderHost)
	}
	if host == "" {
		return ""
	}
	return proto + "://" + host
}
