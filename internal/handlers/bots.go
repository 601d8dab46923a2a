package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/botdeckhq/botdeck/internal/registry"
)

// BotsHandler exposes the bot catalogue and per-tenant installation.
type BotsHandler struct {
	service *registry.Service
	logger  *slog.Logger
}

func NewBotsHandler(log *slog.Logger, service *registry.Service) *BotsHandler {
	return &BotsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "bots")),
	}
}

func (h *BotsHandler) Register(e *echo.Echo) {
	group := e.Group("/bots")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)

	e.POST("/installations", h.Install)
}

func (h *BotsHandler) Create(c echo.Context) error {
	var req registry.AddBotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	bot, err := h.service.AddBot(c.Request().Context(), req)
	if err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, bot)
}

func (h *BotsHandler) List(c echo.Context) error {
	bots, err := h.service.ListBots(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, registry.ListBotsResponse{Items: bots})
}

func (h *BotsHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	bot, err := h.service.GetBot(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrBotNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bot not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bot)
}

func (h *BotsHandler) Install(c echo.Context) error {
	var req registry.InstallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ClientKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "client_key is required")
	}
	if len(req.BotIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "bot_ids is required")
	}

	if err := h.service.InstallBots(c.Request().Context(), req.ClientKey, req.BotIDs); err != nil {
		if errors.Is(err, registry.ErrUnknownBot) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.logger.Info("bots installed",
		slog.String("client_key", req.ClientKey),
		slog.Int("count", len(req.BotIDs)),
	)
	return c.NoContent(http.StatusNoContent)
}
