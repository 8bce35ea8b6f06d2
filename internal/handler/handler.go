package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"bookreview/internal/auth"
	"bookreview/internal/errors"
	"bookreview/internal/logger"
)

// CallerContextKey is where the auth gate stores the *auth.Identity of the caller.
const CallerContextKey = "caller"

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondError maps a service error onto its HTTP status and error body. Internal
// failures are logged with the request id and never echoed to the client.
func RespondError(c echo.Context, log logger.Logger, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.IsInternal() {
		log.Error("request failed", map[string]interface{}{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"method":     c.Request().Method,
			"route":      c.Path(),
			"error":      err.Error(),
		})
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func invalidBody() error {
	return badRequest("invalid request body", "INVALID_REQUEST")
}

func validationFailed(err error) error {
	return badRequest(err.Error(), "VALIDATION_ERROR")
}

// callerFrom returns the identity resolved by the auth gate.
func callerFrom(c echo.Context) (*auth.Identity, error) {
	identity, ok := c.Get(CallerContextKey).(*auth.Identity)
	if !ok || identity == nil {
		return nil, errors.ErrMissingToken
	}
	return identity, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid "+name, "INVALID_ID")
	}
	return uint(id), nil
}
