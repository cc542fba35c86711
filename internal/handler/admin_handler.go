package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/service"
	"github.com/pixelmint/pixelmint-backend/pkg/utils"
)

type AdminHandler struct {
	adminService *service.AdminService
	validator    *utils.Validator
}

func NewAdminHandler(adminService *service.AdminService, validator *utils.Validator) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validator:    validator,
	}
}

func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.adminService.Stats()
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(stats, ""))
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := utils.ParsePagination(c)
	users, total, err := h.adminService.ListUsers(page, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(models.Paginated{
		Items: users,
		Page:  page,
		Limit: limit,
		Total: total,
	}, ""))
}

func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid user ID"))
	}

	var req models.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	user, err := h.adminService.UpdateRole(uint(userID), req.Role)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(user, "User role updated"))
}

func (h *AdminHandler) AdjustUserTokens(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid user ID"))
	}

	var req models.AdjustTokensRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	entry, err := h.adminService.AdjustTokens(uint(userID), req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(entry, "Token balance adjusted"))
}

func (h *AdminHandler) ListPackages(c *fiber.Ctx) error {
	packages, err := h.adminService.ListPackages()
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(packages, ""))
}

func (h *AdminHandler) CreatePackage(c *fiber.Ctx) error {
	var req models.CreateTokenPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	pkg, err := h.adminService.CreatePackage(req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(pkg, "Package created"))
}

func (h *AdminHandler) UpdatePackage(c *fiber.Ctx) error {
	packageID, err := c.ParamsInt("id")
	if err != nil || packageID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid package ID"))
	}

	var req models.UpdateTokenPackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	pkg, err := h.adminService.UpdatePackage(uint(packageID), req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(pkg, "Package updated"))
}

func (h *AdminHandler) DeactivatePackage(c *fiber.Ctx) error {
	packageID, err := c.ParamsInt("id")
	if err != nil || packageID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid package ID"))
	}

	pkg, err := h.adminService.DeactivatePackage(uint(packageID))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(pkg, "Package deactivated"))
}

func (h *AdminHandler) ListProviders(c *fiber.Ctx) error {
	return c.JSON(models.SuccessResponse(h.adminService.ListProviders(), ""))
}

func (h *AdminHandler) ProviderModels(c *fiber.Ctx) error {
	name := c.Params("name")
	modelInfos, err := h.adminService.ProviderModels(name)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(modelInfos, ""))
}

func (h *AdminHandler) SwitchProvider(c *fiber.Ctx) error {
	var req models.SwitchProviderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	if err := h.adminService.SwitchProvider(req.Provider); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Provider switched"))
}

func (h *AdminHandler) TestProvider(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.adminService.TestProvider(c.Context(), name); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"provider": name, "status": "ok"}, ""))
}

func (h *AdminHandler) RetryNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	retried, err := h.adminService.RetryNotifications(limit)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"retried": retried}, ""))
}
