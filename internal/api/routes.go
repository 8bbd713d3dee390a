package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/open2fa/console/domain/entities"
	"github.com/open2fa/console/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, console *usecase.Console, logger *zap.Logger) {
	h := &handler{console: console, logger: logger}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "open2fa-console",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Session APIs
	v1.POST("/auth/login", h.login)
	v1.GET("/auth/profile", h.profile)
	v1.POST("/auth/logout", h.logout)

	// Admin device APIs
	v1.GET("/devices", h.listDevices)
	v1.GET("/devices/:id", h.getDevice)
	v1.POST("/devices", h.createDevice)
	v1.PUT("/devices/:id", h.updateDevice)
	v1.POST("/devices/:id/reset", h.resetDevice)

	// Public device APIs (no authentication by design)
	v1.GET("/public/devices", h.publicListDevices)
	v1.GET("/public/devices/sn/:sn", h.publicGetDeviceBySN)
	v1.GET("/public/devices/:id/2fa", h.publicGetDevice2FA)
}

type handler struct {
	console *usecase.Console
	logger  *zap.Logger
}

// bearerToken extracts the opaque session token from the Authorization header.
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// fail maps the domain error taxonomy onto HTTP responses. Internal faults
// are reported as a generic category; no storage detail leaks to callers.
func (h *handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid username or password",
		})
	case errors.Is(err, entities.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "A valid session token is required",
		})
	case errors.Is(err, entities.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Administrator role is required for this operation",
		})
	case errors.Is(err, entities.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Device not found",
		})
	case errors.Is(err, entities.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: "A device with this serial number already exists",
		})
	default:
		h.logger.Error("operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "The operation could not be completed",
		})
	}
}

func (h *handler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	token, role, err := h.console.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Role:    string(role),
	})
}

func (h *handler) profile(c echo.Context) error {
	profile, err := h.console.Profile(bearerToken(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		Success: true,
		User: ProfileUser{
			UserID:   profile.UserID,
			Username: profile.Username,
			Role:     string(profile.Role),
		},
	})
}

func (h *handler) logout(c echo.Context) error {
	h.console.Logout(c.Request().Context(), bearerToken(c))
	return c.JSON(http.StatusOK, AckResponse{Success: true})
}

func (h *handler) listDevices(c echo.Context) error {
	filters := usecase.DeviceFilters{
		SerialNumber: c.QueryParam("device_sn"),
		Model:        c.QueryParam("device_model"),
		OwnerOrg:     c.QueryParam("owner_org"),
	}
	devices, err := h.console.ListDevices(bearerToken(c), filters)
	if err != nil {
		return h.fail(c, err)
	}
	items := make([]DeviceItem, 0, len(devices))
	for _, d := range devices {
		items = append(items, toDeviceItem(d))
	}
	return c.JSON(http.StatusOK, DeviceListResponse{Success: true, Devices: items})
}

func (h *handler) getDevice(c echo.Context) error {
	device, err := h.console.GetDevice(bearerToken(c), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, DeviceDetailResponse{Success: true, Device: toDeviceItem(device)})
}

func (h *handler) createDevice(c echo.Context) error {
	var req DeviceCreateRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind device create request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	device, err := h.console.CreateDevice(c.Request().Context(), bearerToken(c), usecase.CreateDevice{
		SerialNumber: req.DeviceSN,
		Model:        req.DeviceModel,
		Name:         req.DeviceName,
		OwnerOrg:     req.OwnerOrg,
		Remark:       req.Remark,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, DeviceDetailResponse{Success: true, Device: toDeviceItem(device)})
}

func (h *handler) updateDevice(c echo.Context) error {
	var req DeviceUpdateRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind device update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	patch := entities.DeviceUpdate{
		Name:     req.DeviceName,
		Model:    req.DeviceModel,
		OwnerOrg: req.OwnerOrg,
		Remark:   remarkPatch(req.Remark),
	}
	if err := h.console.UpdateDevice(c.Request().Context(), bearerToken(c), c.Param("id"), patch); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, AckResponse{Success: true})
}

func (h *handler) resetDevice(c echo.Context) error {
	result, err := h.console.ResetDevice(c.Request().Context(), bearerToken(c), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, DeviceResetResponse{
		Success:      true,
		SecretMasked: result.SecretMasked,
		OTPAuthURL:   result.OTPAuthURL,
	})
}

func (h *handler) publicListDevices(c echo.Context) error {
	devices := h.console.PublicListDevices()
	items := make([]PublicDeviceItem, 0, len(devices))
	for _, d := range devices {
		items = append(items, toPublicItem(d))
	}
	return c.JSON(http.StatusOK, PublicDeviceListResponse{Success: true, Devices: items})
}

func (h *handler) publicGetDeviceBySN(c echo.Context) error {
	detail, err := h.console.PublicGetDeviceBySN(c.Param("sn"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, PublicDeviceDetailResponse{Success: true, Device: toPublicDetail(detail)})
}

func (h *handler) publicGetDevice2FA(c echo.Context) error {
	detail, err := h.console.PublicGetDevice2FA(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, PublicDeviceDetailResponse{Success: true, Device: toPublicDetail(detail)})
}

func remarkPatch(o OptionalString) entities.RemarkPatch {
	if !o.Present {
		return entities.RemarkUnchanged()
	}
	if o.Value == nil {
		return entities.RemarkCleared()
	}
	return entities.RemarkSet(*o.Value)
}

func toDeviceItem(d usecase.AdminDevice) DeviceItem {
	return DeviceItem{
		DeviceID:     d.DeviceID,
		DeviceSN:     d.SerialNumber,
		DeviceModel:  d.Model,
		DeviceName:   d.Name,
		OwnerOrg:     d.OwnerOrg,
		Remark:       d.Remark,
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.UTC().Format(time.RFC3339),
		SecretMasked: d.SecretMasked,
		OTPAuthURL:   d.OTPAuthURL,
	}
}

func toPublicItem(d usecase.PublicDevice) PublicDeviceItem {
	return PublicDeviceItem{
		DeviceID:    d.DeviceID,
		DeviceSN:    d.SerialNumber,
		DeviceModel: d.Model,
		DeviceName:  d.Name,
		OwnerOrg:    d.OwnerOrg,
		Has2FA:      d.Has2FA,
	}
}

func toPublicDetail(d usecase.PublicDeviceDetail) PublicDeviceDetail {
	return PublicDeviceDetail{
		PublicDeviceItem: toPublicItem(d.PublicDevice),
		SecretMasked:     d.SecretMasked,
		OTPAuthURL:       d.OTPAuthURL,
	}
}
