package handler

import (
	"net/http"

	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのエラー種別をHTTPステータスへ変換する
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ue, ok := usecase.AsError(err); ok {
		return c.JSON(statusOf(ue.Kind), ErrorResponse{Error: ue.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func statusOf(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindInvalidTransition, usecase.KindInvalidState, usecase.KindValidation:
		return http.StatusBadRequest
	case usecase.KindConflict:
		return http.StatusConflict
	case usecase.KindGatewayUnavailable:
		return http.StatusBadGateway
	case usecase.KindVerificationTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

//middleware.AuthJWT が contextに入れた値からActorを組み立てる

func getActorFromContext(c echo.Context) (usecase.Actor, bool) {
	rawID := c.Get(middleware.CtxUserIDKey)
	id, ok := rawID.(int64)
	if !ok || id <= 0 {
		return usecase.Actor{}, false
	}

	rawRole := c.Get(middleware.CtxUserRoleKey)
	role, ok := rawRole.(string)
	if !ok || role == "" {
		return usecase.Actor{}, false
	}

	name, _ := c.Get(middleware.CtxUserNameKey).(string)

	return usecase.Actor{
		ID:   id,
		Name: name,
		Role: model.Role(role),
	}, true
}
