package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
	"github.com/bloodlink/bloodlink/internal/present/rest/middleware"
	"github.com/bloodlink/bloodlink/internal/present/rest/presenter"
	"github.com/bloodlink/bloodlink/internal/service"
	"github.com/bloodlink/bloodlink/internal/usecase"
)

type Handler struct {
	request     *usecase.RequestUsecase
	donation    *usecase.DonationUsecase
	eligibility *usecase.EligibilityUsecase
	registry    *service.ConnectionRegistry
}

func NewHandler(
	request *usecase.RequestUsecase,
	donation *usecase.DonationUsecase,
	eligibility *usecase.EligibilityUsecase,
	registry *service.ConnectionRegistry,
) *Handler {
	return &Handler{
		request:     request,
		donation:    donation,
		eligibility: eligibility,
		registry:    registry,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/requests", h.handleCreateRequest)
	e.GET("/requests/alerts", h.handleAlerts)
	e.GET("/requests/mine", h.handleMine)
	e.GET("/requests/mine-accepted", h.handleMineAccepted)
	e.PUT("/requests/:id/accept", h.handleAccept)
	e.PUT("/requests/:id/confirm-fulfilled", h.handleConfirmFulfilled)
	e.PUT("/requests/:id/report-unresponsive", h.handleReportUnresponsive)
	e.PUT("/requests/:id/cancel-accept", h.handleCancelAccept)
	e.PUT("/requests/:id/cancel", h.handleCancel)
	e.POST("/donations", h.handleLogDonation)
	e.GET("/donations/mine", h.handleDonationHistory)
	e.GET("/eligibility", h.handleEligibility)
	e.GET("/realtime", h.handleRealtime)
}

func callerIdentity(c echo.Context) (domain.Identity, bool) {
	return middleware.IdentityFrom(c.Request().Context())
}

type createRequestBody struct {
	BloodGroup  string   `json:"bloodGroup"`
	UnitsNeeded int      `json:"unitsNeeded"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	DocumentRef string   `json:"documentRef"`
}

func (h *Handler) handleCreateRequest(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	var body createRequestBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}

	group, err := domain.ParseBloodGroup(body.BloodGroup)
	if err != nil {
		return presenter.Error(c, err)
	}

	location, err := parseLocation(body.Latitude, body.Longitude)
	if err != nil {
		return presenter.Error(c, err)
	}

	result, err := h.request.Create(ctx, usecase.CreateRequestInput{
		Requester:   caller,
		BloodGroup:  group,
		UnitsNeeded: body.UnitsNeeded,
		Address:     body.Address,
		Location:    location,
		DocumentRef: body.DocumentRef,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, result)
}

func parseLocation(lat, lon *float64) (*geo.Point, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, domain.ValidationError{Reason: "latitude and longitude must both be present"}
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil, domain.ValidationError{Reason: "coordinates out of range"}
	}
	return &geo.Point{Latitude: *lat, Longitude: *lon}, nil
}

func (h *Handler) handleAlerts(c echo.Context) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	views, err := h.request.Alerts(c.Request().Context(), caller)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, views)
}

func (h *Handler) handleMine(c echo.Context) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	views, err := h.request.Mine(c.Request().Context(), caller)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, views)
}

func (h *Handler) handleMineAccepted(c echo.Context) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	views, err := h.request.MineAccepted(c.Request().Context(), caller)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, views)
}

func (h *Handler) handleAccept(c echo.Context) error {
	return h.transition(c, h.request.Accept)
}

func (h *Handler) handleConfirmFulfilled(c echo.Context) error {
	return h.transition(c, h.request.ConfirmFulfilled)
}

func (h *Handler) handleReportUnresponsive(c echo.Context) error {
	return h.transition(c, h.request.ReportUnresponsive)
}

func (h *Handler) handleCancelAccept(c echo.Context) error {
	return h.transition(c, h.request.CancelAccept)
}

func (h *Handler) handleCancel(c echo.Context) error {
	return h.transition(c, h.request.Cancel)
}

func (h *Handler) transition(
	c echo.Context,
	op func(ctx context.Context, id string, caller domain.Identity) (*domain.BloodRequest, error),
) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	request, err := op(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, request)
}

type logDonationBody struct {
	BloodGroup string     `json:"bloodGroup"`
	Units      int        `json:"units"`
	DonatedAt  *time.Time `json:"donatedAt"`
}

func (h *Handler) handleLogDonation(c echo.Context) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	var body logDonationBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}

	group, err := domain.ParseBloodGroup(body.BloodGroup)
	if err != nil {
		return presenter.Error(c, err)
	}

	donation, err := h.donation.Log(c.Request().Context(), usecase.LogDonationInput{
		Donor:      caller,
		BloodGroup: group,
		Units:      body.Units,
		DonatedAt:  body.DonatedAt,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, donation)
}

func (h *Handler) handleDonationHistory(c echo.Context) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	donations, err := h.donation.History(c.Request().Context(), caller)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, donations)
}

func (h *Handler) handleEligibility(c echo.Context) error {
	caller, ok := callerIdentity(c)
	if !ok {
		return presenter.Unauthorized(c, "identity required")
	}

	eligibility, err := h.eligibility.CanDonate(c.Request().Context(), caller)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, eligibility)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	output := make(chan domain.Event, 16)
	defer func() {
		h.registry.Unregister(output)
		close(output)
	}()

	// buffered so the reader can exit even when the writer loop is
	// already gone after a failed write
	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "join":
				kind, err := domain.ParseIdentityKind(req.Kind)
				if err != nil || req.ID == "" {
					slog.InfoContext(
						ctx, "Rejected join",
						slog.String("kind", req.Kind),
						slog.String("module", "socket"),
					)
					continue
				}
				identity := domain.Identity{Kind: kind, ID: req.ID}
				h.registry.Register(identity, output)
				slog.DebugContext(
					ctx, "Socket joined",
					slog.String("identity", identity.String()),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
