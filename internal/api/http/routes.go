package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-weather/internal/notify"
	"github.com/i474232898/city-weather/internal/weather"
)

var validate = validator.New()

// NotificationFeed lists recent user notifications.
type NotificationFeed interface {
	Recent() []notify.Notification
}

// Country is a selectable country in the city form.
type Country struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Countries offered by the city form.
var Countries = []Country{
	{Code: "GB", Label: "United Kingdom"},
	{Code: "US", Label: "United States"},
	{Code: "FR", Label: "France"},
	{Code: "DE", Label: "Germany"},
	{Code: "ES", Label: "Spain"},
	{Code: "IT", Label: "Italy"},
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, feed NotificationFeed) {
	v1 := app.Group("/api/v1")

	v1.Get("/countries", func(c *fiber.Ctx) error {
		return c.JSON(Countries)
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(service.Cities())
	})

	v1.Get("/cities/:id", func(c *fiber.Ctx) error {
		rec, ok := service.City(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "city is not tracked")
		}
		return c.JSON(rec)
	})

	v1.Post("/cities", func(c *fiber.Ctx) error {
		var req cityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		out := service.Reconcile(c.UserContext(), req.City, req.Country)
		return respond(c, out, reconcileStatus(out))
	})

	v1.Post("/cities/:id/refresh", func(c *fiber.Ctx) error {
		out := service.Refresh(c.UserContext(), c.Params("id"))
		status := refreshStatus(out)
		if status == http.StatusNotFound {
			return fiber.NewError(status, "city is not tracked")
		}
		return respond(c, out, status)
	})

	v1.Delete("/cities/:id", func(c *fiber.Ctx) error {
		out := service.Remove(c.Params("id"))
		if out.Kind != weather.OutcomeRemoved {
			return fiber.NewError(fiber.StatusNotFound, "city is not tracked")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Delete("/cities", func(c *fiber.Ctx) error {
		service.Clear()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/notifications", func(c *fiber.Ctx) error {
		if feed == nil {
			return c.JSON([]notify.Notification{})
		}
		return c.JSON(feed.Recent())
	})
}

// cityRequest is the body of POST /cities. An empty city is reported by the
// service as a validation outcome rather than rejected here.
type cityRequest struct {
	City    string `json:"city" form:"city"`
	Country string `json:"country" form:"country" validate:"required,iso3166_1_alpha2"`
}

type outcomeResponse struct {
	Outcome weather.OutcomeKind    `json:"outcome"`
	Message string                 `json:"message,omitempty"`
	Level   weather.Level          `json:"level,omitempty"`
	City    *weather.WeatherRecord `json:"city,omitempty"`
}

func respond(c *fiber.Ctx, out weather.Outcome, status int) error {
	return c.Status(status).JSON(outcomeResponse{
		Outcome: out.Kind,
		Message: out.Message,
		Level:   out.Level,
		City:    out.Record,
	})
}

func reconcileStatus(out weather.Outcome) int {
	switch out.Kind {
	case weather.OutcomeAdded:
		return http.StatusCreated
	case weather.OutcomeUpdated:
		return http.StatusOK
	case weather.OutcomeValidationFailed:
		return http.StatusUnprocessableEntity
	case weather.OutcomeLookupFailed:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// refreshStatus maps a refresh outcome to a status. A refresh abandoned
// because the caller went away is not a missing city.
func refreshStatus(out weather.Outcome) int {
	switch {
	case out.Kind == weather.OutcomeUpdated:
		return http.StatusOK
	case out.Kind == weather.OutcomeLookupFailed:
		return http.StatusBadGateway
	case errors.Is(out.Err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusNotFound
	}
}
