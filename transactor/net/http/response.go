package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/LerianStudio/lib-transactor/transactor"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every error answered by the service.
type ErrorResponse struct {
	// HTTP status code
	Code int `json:"code"`
	// Error type identifier
	Title string `json:"title"`
	// Human-readable error message
	Message string `json:"message"`
}

// Error allows ErrorResponse to satisfy the error interface.
func (e ErrorResponse) Error() string {
	return e.Message
}

// Respond writes payload as JSON with status.
func Respond(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(payload)
}

// RespondError writes an ErrorResponse with status.
func RespondError(c *fiber.Ctx, status int, title, message string) error {
	return Respond(c, status, ErrorResponse{Code: status, Title: title, Message: message})
}

// OK sends an HTTP 200 OK response with a custom body.
func OK(c *fiber.Ctx, payload any) error {
	return Respond(c, http.StatusOK, payload)
}

// BadRequestError writes a 400 Bad Request error response.
func BadRequestError(c *fiber.Ctx, title, message string) error {
	return RespondError(c, fiber.StatusBadRequest, title, message)
}

// RequestEntityTooLargeError writes a 413 Request Entity Too Large error response.
func RequestEntityTooLargeError(c *fiber.Ctx, title, message string) error {
	return RespondError(c, fiber.StatusRequestEntityTooLarge, title, message)
}

// InternalServerError writes a 500 response with a generic message.
func InternalServerError(c *fiber.Ctx) error {
	return RespondError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}

// RenderError writes err through the ErrorResponse contract. Business errors
// become 422 with their domain code as title; unknown errors become 500.
func RenderError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var resp ErrorResponse
	if errors.As(err, &resp) {
		status := fiber.StatusInternalServerError
		if resp.Code >= http.StatusContinue && resp.Code <= 599 {
			status = resp.Code
		}

		title := resp.Title
		if title == "" {
			title = constant.DefaultErrorTitle
		}

		message := resp.Message
		if message == "" {
			message = http.StatusText(status)
		}

		return RespondError(c, status, title, message)
	}

	var business transactor.Response
	if errors.As(err, &business) {
		return Respond(c, fiber.StatusUnprocessableEntity, fiber.Map{
			"code":    strconv.Itoa(fiber.StatusUnprocessableEntity),
			"title":   business.Title,
			"message": business.Message,
			"reason":  business.Code,
		})
	}

	return InternalServerError(c)
}
