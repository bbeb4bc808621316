package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "QuantDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover returns panic recovery middleware.
func Recover(log *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					log.Error("panic in admin handler",
						applogger.Error(err),
						applogger.String("stack", string(debug.Stack())),
					)
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
