package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/service"
	"github.com/pixelmint/pixelmint-backend/pkg/utils"
)

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

func (h *FileHandler) Upload(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("File is required"))
	}

	file, err := h.fileService.Upload(c.Context(), userID, fileHeader)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(file, "File uploaded"))
}

func (h *FileHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	page, limit := utils.ParsePagination(c)
	files, total, err := h.fileService.List(userID, page, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(models.Paginated{
		Items: files,
		Page:  page,
		Limit: limit,
		Total: total,
	}, ""))
}

func (h *FileHandler) SignedURL(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	fileID, err := c.ParamsInt("id")
	if err != nil || fileID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid file ID"))
	}

	url, err := h.fileService.SignedURL(c.Context(), userID, uint(fileID))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"url": url}, ""))
}

func (h *FileHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	fileID, err := c.ParamsInt("id")
	if err != nil || fileID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid file ID"))
	}

	if err := h.fileService.Delete(c.Context(), userID, uint(fileID)); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "File deleted"))
}
