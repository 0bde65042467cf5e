package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Invalid re-renders a rejected form: the submitted values plus per-field errors.
func Invalid(ctx *gin.Context, code int, data gin.H, fieldErrors map[string]string) {
	if data == nil {
		data = gin.H{}
	}
	data["errors"] = fieldErrors
	Respond(ctx, http.StatusBadRequest, code, "invalid form", data)
}

// Redirect sends a 302 to location.
func Redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusFound, location)
}
