package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	return middleware.CurrentUserID(ctx)
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bindErrors turns a binding failure into per-field messages keyed by the lower-cased field name.
func bindErrors(err error) services.FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return services.FieldErrors{"__all__": "invalid request payload"}
	}
	return services.FieldErrors(lo.Associate(verrs, func(fe validator.FieldError) (string, string) {
		return strings.ToLower(fe.Field()), fieldMessage(fe)
	}))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "at most " + fe.Param() + " characters"
	case "min":
		return "at least " + fe.Param() + " characters"
	default:
		return "invalid value"
	}
}

// respondError maps service errors onto the JSON envelope. Validation errors are
// handled by the caller because each form re-renders its own context.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.Error(ctx, http.StatusForbidden, 40300, "permission denied")
	case errors.Is(err, services.ErrGroupInUse):
		utils.Error(ctx, http.StatusConflict, 40900, err.Error())
	default:
		_ = ctx.Error(err)
		utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

func notFound(ctx *gin.Context) {
	utils.Error(ctx, http.StatusNotFound, 40400, "not found")
}

func postURL(username string, postID uint) string {
	return "/" + username + "/" + strconv.FormatUint(uint64(postID), 10) + "/"
}

func profileURL(username string) string {
	return "/" + username + "/"
}
