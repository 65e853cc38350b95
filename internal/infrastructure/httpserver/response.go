package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ok writes the success envelope, merged with extra
func ok(c echo.Context, message string, extra echo.Map) error {
	body := echo.Map{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// fail writes the failure envelope; code is omitted when empty
func fail(c echo.Context, status int, message, code string) error {
	body := echo.Map{"success": false, "message": message}
	if code != "" {
		body["code"] = code
	}
	return c.JSON(status, body)
}

// errorHandler renders framework and unexpected errors in the same envelope
// the handlers use.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			message = m
		case error:
			message = m.Error()
		case nil:
			message = http.StatusText(status)
		default:
			message = fmt.Sprint(m)
		}
		if status >= 500 {
			message = http.StatusText(status)
		}
	}

	if status >= 500 && s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
		}).WithError(err).Error("unhandled request error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = fail(c, status, message, "")
	}
	if err != nil && s.logger != nil {
		s.logger.WithError(err).Error("failed to write error response")
	}
}
