package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Orders         *handler.OrderHandler
	AdminOrders    *handler.AdminOrderHandler
	DeliveryOrders *handler.DeliveryOrderHandler
}

func Start(cfg config.Config, h Handlers) error {
	e := echo.New()
	e.HideBanner = true

	RegisterRoutes(e, cfg, h)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return e.Start(addr)
}
