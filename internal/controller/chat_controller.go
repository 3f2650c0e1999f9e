package controller

import (
	"errors"

	"campus-chatbot-be/internal/dto"
	"campus-chatbot-be/internal/pkg/serverutils"
	"campus-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.SendChat)
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrRateLimited) {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many turns, slow down")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}
