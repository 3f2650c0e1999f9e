package controller

import (
	"campus-chatbot-be/internal/dto"
	"campus-chatbot-be/internal/pkg/serverutils"
	"campus-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	IngestDocument(ctx *fiber.Ctx) error
}

type ingestController struct {
	service service.IIngestService
}

func NewIngestController(service service.IIngestService) IIngestController {
	return &ingestController{service: service}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED
	h.Post("/documents", c.IngestDocument)
}

func (c *ingestController) IngestDocument(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.QueueDocument(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}
