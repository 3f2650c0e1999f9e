package controller

import (
	"errors"

	"campus-chatbot-be/internal/dto"
	"campus-chatbot-be/internal/pkg/serverutils"
	"campus-chatbot-be/internal/service"
	"campus-chatbot-be/pkg/chat/search"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetSessionStats(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	DebugRetrieval(ctx *fiber.Ctx) error
	DebugLlm(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED
	h.Get("/sessions/stats", c.GetSessionStats)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Post("/debug/retrieval", c.DebugRetrieval)
	h.Post("/debug/llm", c.DebugLlm)
}

func (c *adminController) GetSessionStats(ctx *fiber.Ctx) error {
	res := c.service.GetSessionStats(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success get session stats", res))
}

func (c *adminController) DeleteSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	if !c.service.DeleteSession(ctx.Context(), sessionID) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *adminController) DebugRetrieval(ctx *fiber.Ctx) error {
	var req dto.RetrievalDebugRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.DebugRetrieval(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, search.ErrPartitionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Partition not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success debug retrieval", res))
}

func (c *adminController) DebugLlm(ctx *fiber.Ctx) error {
	var req dto.LlmDebugRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.DebugLlm(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success debug llm", res))
}
