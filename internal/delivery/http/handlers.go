package http

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/internal/service"
)

// Quests is the mission API the handlers call. *service.QuestService implements it.
type Quests interface {
	StartSession(ctx context.Context) (domain.Profile, error)
	Profile(ctx context.Context, sessionID string) (domain.Profile, error)
	DailyLogin(ctx context.Context, sessionID string) (domain.EventOutcome, error)
	AnalyzeWaste(ctx context.Context, sessionID string, req domain.AnalysisRequest) (domain.AnalysisResult, error)
	AnalyzeImage(ctx context.Context, sessionID string, image []byte, mimeType string) (domain.ImageAnalysis, error)
	FindFacilities(ctx context.Context, sessionID string, q domain.FacilityQuery) (domain.FacilityResult, error)
	Locate(ctx context.Context, q domain.FacilityQuery) (domain.FacilitySearch, error)
	CalculateFootprint(ctx context.Context, sessionID, wasteType string, weightKg float64) (domain.FootprintOutcome, error)
	FootprintHistory(ctx context.Context, sessionID string, months int) (domain.FootprintHistory, error)
}

// Handler contains all HTTP handlers
type Handler struct {
	quests        Quests
	activity      domain.ActivityRepository
	maxImageBytes int
}

// NewHandler creates a new handler
func NewHandler(quests Quests, activity domain.ActivityRepository, maxImageBytes int) *Handler {
	return &Handler{
		quests:        quests,
		activity:      activity,
		maxImageBytes: maxImageBytes,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	storage := "ok"
	if err := h.activity.Health(c.UserContext()); err != nil {
		storage = "unavailable"
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "ecoquest-backend",
		"version": "1.0.0",
		"storage": storage,
	})
}

// StartSession creates a new player session
func (h *Handler) StartSession(c *fiber.Ctx) error {
	profile, err := h.quests.StartSession(c.UserContext())
	if err != nil {
		return toFiberError(err, "Failed to start session")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    profile,
	})
}

// GetProfile returns points, level progress and achievements
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.quests.Profile(c.UserContext(), c.Params("id"))
	if err != nil {
		return toFiberError(err, "Failed to load session")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    profile,
	})
}

// DailyLogin awards the daily login bonus
func (h *Handler) DailyLogin(c *fiber.Ctx) error {
	outcome, err := h.quests.DailyLogin(c.UserContext(), c.Params("id"))
	if err != nil {
		return toFiberError(err, "Failed to record login")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    outcome,
	})
}

// AnalyzeWaste runs the text analysis mission
func (h *Handler) AnalyzeWaste(c *fiber.Ctx) error {
	var req domain.AnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.quests.AnalyzeWaste(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return toFiberError(err, "Failed to analyze waste")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// AnalyzeImage runs the visual recognition challenge on a multipart upload
// in the "image" field.
func (h *Handler) AnalyzeImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing image upload")
	}
	if file.Size > int64(h.maxImageBytes) {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Image is too large")
	}

	f, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable image upload")
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, int64(h.maxImageBytes)+1))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable image upload")
	}
	if len(image) > h.maxImageBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Image is too large")
	}

	analysis, err := h.quests.AnalyzeImage(c.UserContext(), c.Params("id"), image, file.Header.Get("Content-Type"))
	if err != nil {
		return toFiberError(err, "Failed to analyze image")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    analysis,
	})
}

// FindFacilities ranks disposal facilities and awards the search bonus
func (h *Handler) FindFacilities(c *fiber.Ctx) error {
	q, err := parseFacilityQuery(c)
	if err != nil {
		return err
	}

	result, err := h.quests.FindFacilities(c.UserContext(), c.Params("id"), q)
	if err != nil {
		return toFiberError(err, "Failed to find disposal locations")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// Facilities ranks disposal facilities without a session
func (h *Handler) Facilities(c *fiber.Ctx) error {
	q, err := parseFacilityQuery(c)
	if err != nil {
		return err
	}

	search, err := h.quests.Locate(c.UserContext(), q)
	if err != nil {
		return toFiberError(err, "Failed to find disposal locations")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    search,
		"count":   len(search.Facilities),
	})
}

type footprintRequest struct {
	WasteType string  `json:"waste_type"`
	WeightKg  float64 `json:"weight_kg"`
}

// CalculateFootprint runs the carbon footprint calculator
func (h *Handler) CalculateFootprint(c *fiber.Ctx) error {
	var req footprintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	outcome, err := h.quests.CalculateFootprint(c.UserContext(), c.Params("id"), req.WasteType, req.WeightKg)
	if err != nil {
		return toFiberError(err, "Failed to calculate footprint")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    outcome,
	})
}

// GetFootprintHistory returns the monthly footprint series
func (h *Handler) GetFootprintHistory(c *fiber.Ctx) error {
	months := c.QueryInt("months", 12)

	history, err := h.quests.FootprintHistory(c.UserContext(), c.Params("id"), months)
	if err != nil {
		return toFiberError(err, "Failed to fetch footprint history")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    history,
		"count":   len(history.Points),
	})
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify scores free text without a session
func (h *Handler) Classify(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result := service.Score(req.Text)
	top := result.Top()
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"classification": result,
			"primary_type":   top.Category,
			"confidence":     top.Confidence,
			"hazard_level":   top.HazardLevel,
		},
	})
}

func parseFacilityQuery(c *fiber.Ctx) (domain.FacilityQuery, error) {
	q := domain.FacilityQuery{
		Place:    c.Query("q"),
		Category: c.Query("category", string(domain.General)),
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "lat and lon must both be numbers")
		}
		q.Latitude, q.Longitude = &lat, &lon
	}
	return q, nil
}

// toFiberError maps service errors to HTTP errors
func toFiberError(err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	case errors.Is(err, domain.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Location not found. Please try a different address.")
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}
