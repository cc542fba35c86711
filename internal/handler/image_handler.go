package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/service"
	"github.com/pixelmint/pixelmint-backend/pkg/utils"
)

type ImageHandler struct {
	imageService *service.ImageService
	validator    *utils.Validator
}

func NewImageHandler(imageService *service.ImageService, validator *utils.Validator) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		validator:    validator,
	}
}

// Generate answers 202: the image row is created immediately while the
// actual generation runs on the worker pool.
func (h *ImageHandler) Generate(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.GenerateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	image, err := h.imageService.Generate(userID, req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(models.SuccessResponse(image, "Image generation started"))
}

func (h *ImageHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	page, limit := utils.ParsePagination(c)
	images, total, err := h.imageService.List(userID, page, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(models.Paginated{
		Items: images,
		Page:  page,
		Limit: limit,
		Total: total,
	}, ""))
}

func (h *ImageHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	imageID, err := c.ParamsInt("id")
	if err != nil || imageID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid image ID"))
	}

	image, err := h.imageService.Get(userID, uint(imageID))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(image, ""))
}

func (h *ImageHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	imageID, err := c.ParamsInt("id")
	if err != nil || imageID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid image ID"))
	}

	if err := h.imageService.Delete(c.Context(), userID, uint(imageID)); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Image deleted"))
}
