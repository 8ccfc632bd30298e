package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// parseUintParam parses a numeric path parameter
func parseUintParam(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}
