package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type DeliveryOrderHandler struct {
	uc        *usecase.OrderUsecase
	lifecycle *usecase.LifecycleUsecase
	payment   *usecase.PaymentUsecase
}

func NewDeliveryOrderHandler(uc *usecase.OrderUsecase, lifecycle *usecase.LifecycleUsecase, payment *usecase.PaymentUsecase) *DeliveryOrderHandler {
	return &DeliveryOrderHandler{uc: uc, lifecycle: lifecycle, payment: payment}
}

type DeliveryStatusUpdateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type CODConfirmRequest struct {
	Notes string `json:"notes"`
}

func (h *DeliveryOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/delivery")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.DeliveryRoleGuard())

	g.GET("/orders", h.list)
	g.PUT("/orders/:id/status", h.updateStatus)
	g.POST("/orders/:id/cod-payment", h.confirmCODPayment)
}

func (h *DeliveryOrderHandler) list(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListAssignedOrders(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryOrderHandler) updateStatus(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req DeliveryStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.lifecycle.RequestTransition(c.Request().Context(), actor, id, usecase.TransitionInput{
		TargetStatus: req.Status,
		Reason:       req.Reason,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *DeliveryOrderHandler) confirmCODPayment(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req CODConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.payment.ConfirmCODPayment(c.Request().Context(), actor, id, req.Notes); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "payment completed"})
}
