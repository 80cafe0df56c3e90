package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/aloeflora/mpesa-gateway/daraja"
	"github.com/aloeflora/mpesa-gateway/models"
	"github.com/aloeflora/mpesa-gateway/payments"
)

type PaymentHandler struct {
	Service *payments.Service
	Tokens  daraja.TokenSource
}

func NewPaymentHandler(svc *payments.Service, tokens daraja.TokenSource) *PaymentHandler {
	return &PaymentHandler{Service: svc, Tokens: tokens}
}

func (h *PaymentHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Token is a smoke-test route for verifying the Daraja credentials.
func (h *PaymentHandler) Token(c *fiber.Ctx) error {
	token, err := h.Tokens.Token(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Token generated successfully",
		"token":   token,
	})
}

func (h *PaymentHandler) STKPush(c *fiber.Ctx) error {
	var in models.STKPushInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request: " + err.Error()})
	}

	res, err := h.Service.Initiate(c.Context(), &in)
	if err != nil {
		var verr *payments.ValidationError
		var rej *payments.RejectedError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error()})
		case errors.As(err, &rej):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":               "Failed to initiate your payment request.",
				"responseDescription": rej.Description,
			})
		default:
			return upstreamError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"message":             "Payment has been initiated, check your phone to proceed.",
		"checkoutRequestID":   res.CheckoutRequestID,
		"merchantRequestID":   res.MerchantRequestID,
		"responseDescription": res.ResponseDescription,
	})
}

// Callback receives Daraja's asynchronous result. It acknowledges with 200
// in every case: a non-2xx would make the network retry or page operators
// over outcomes we already handled, and a malformed payload is our problem
// to log, not theirs to redeliver.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	res, err := h.Service.Reconcile(c.Context(), c.Body())
	switch {
	case err != nil:
		log.Printf("callback: reconcile failed: %v", err)
	case res.AlreadyProcessed:
		log.Printf("callback: checkout %s already processed", res.Transaction.CheckoutRequestID)
	default:
		log.Printf("callback: checkout %s resolved status=%s", res.Transaction.CheckoutRequestID, res.Transaction.Status)
	}
	return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (h *PaymentHandler) STKQuery(c *fiber.Ctx) error {
	var in models.STKQueryInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request: " + err.Error()})
	}

	tx, resp, err := h.Service.Poll(c.Context(), in.CheckoutRequestID)
	if err != nil {
		var verr *payments.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error()})
		case errors.Is(err, payments.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found for the given CheckoutRequestID."})
		default:
			return upstreamError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"message":     fmt.Sprintf("Payment status: %s", tx.Status),
		"transaction": tx,
		"response":    resp,
	})
}

// upstreamError propagates Daraja's status and body when present; transport
// failures map to a plain 500.
func upstreamError(c *fiber.Ctx, err error) error {
	var apiErr *daraja.APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.StatusCode).JSON(fiber.Map{
			"error":   "Safaricom API error",
			"message": string(apiErr.Body),
		})
	}
	log.Printf("upstream: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}
