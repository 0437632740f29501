package presenter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/domain"
)

type errorResponse struct {
	Error    string `json:"error"`
	WaitDays int    `json:"waitDays,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error maps a domain error onto the wire: validation and conflict are
// the caller's fault, missing resources are 404, anything else is 500.
// Cooldown conflicts surface the remaining wait days.
func Error(c echo.Context, err error) error {
	var conflict domain.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:    conflict.Error(),
			WaitDays: conflict.WaitDays,
		})
	}
	if errors.Is(err, domain.ErrValidation) {
		return BadRequest(c, err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return NotFound(c, err.Error())
	}
	return InternalError(c, err)
}
