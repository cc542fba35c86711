package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/service"
	"github.com/pixelmint/pixelmint-backend/pkg/payment"
	"github.com/pixelmint/pixelmint-backend/pkg/utils"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	stripeService  *payment.StripeService
	validator      *utils.Validator
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, stripeService *payment.StripeService, validator *utils.Validator, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		stripeService:  stripeService,
		validator:      validator,
		logger:         logger,
	}
}

func (h *PaymentHandler) GetTokenPackages(c *fiber.Ctx) error {
	packages, err := h.paymentService.GetTokenPackages()
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(packages, ""))
}

func (h *PaymentHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	packageID, err := c.ParamsInt("id")
	if err != nil || packageID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid package ID"))
	}

	resp, err := h.paymentService.CreatePaymentIntent(userID, uint(packageID))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(resp, "Payment intent created"))
}

func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	paymentRecord, err := h.paymentService.ConfirmPayment(userID, req.PaymentIntentID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(paymentRecord, "Payment confirmed"))
}

func (h *PaymentHandler) GetPaymentHistory(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	page, limit := utils.ParsePagination(c)
	payments, total, err := h.paymentService.GetPaymentHistory(userID, page, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(models.SuccessResponse(models.Paginated{
		Items: payments,
		Page:  page,
		Limit: limit,
		Total: total,
	}, ""))
}

// HandleStripeWebhook verifies the signature and hands the event to the
// payment service. A 200 is the acknowledgement Stripe needs to stop
// retrying; anything else makes it redeliver.
func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := h.stripeService.ConstructEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid webhook signature"))
	}

	if err := h.paymentService.HandleWebhook(&event); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Webhook processing failed"))
	}

	return c.JSON(fiber.Map{"received": true})
}
