// Package jobxapi exposes the job queue over HTTP with Fiber.
package jobxapi

import (
	"github.com/Abraxas-365/inferq/pkg/jobx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/gofiber/fiber/v2"
)

// Info is reported by GET /.
type Info struct {
	Name    string
	Version string
}

type Handlers struct {
	service *jobx.Service
	info    Info
}

func NewHandlers(service *jobx.Service, info Info) *Handlers {
	return &Handlers{service: service, info: info}
}

// RegisterRoutes mounts every job queue endpoint on router.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.Root)
	router.Get("/health", h.Health)
	router.Get("/metadata", h.Metadata)

	router.Post("/predict", h.Predict)
	router.Post("/predict/test", h.PredictTest)
	router.Post("/predict/sync", h.PredictSync)

	router.Get("/job/:job_id", h.GetJob)
}

func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    h.info.Name,
		"version": h.info.Version,
		"endpoints": fiber.Map{
			"health":       "GET /health",
			"metadata":     "GET /metadata",
			"predict":      "POST /predict",
			"predict_test": "POST /predict/test",
			"predict_sync": "POST /predict/sync",
			"job_result":   "GET /job/{job_id}",
		},
	})
}

// Health answers 503 whenever a component is down so load balancers can
// act on the status code alone.
func (h *Handlers) Health(c *fiber.Ctx) error {
	report := h.service.Health(c.UserContext())
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

func (h *Handlers) Metadata(c *fiber.Ctx) error {
	md, ok := h.service.Metadata()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "model metadata not available")
	}
	return c.JSON(md)
}

func (h *Handlers) Predict(c *fiber.Ctx) error {
	in, err := parseInput(c)
	if err != nil {
		return err
	}
	return h.submit(c, in)
}

// PredictTest submits one sample row per iris class.
func (h *Handlers) PredictTest(c *fiber.Ctx) error {
	return h.submit(c, predictor.SampleInput())
}

func (h *Handlers) PredictSync(c *fiber.Ctx) error {
	in, err := parseInput(c)
	if err != nil {
		return err
	}
	resp, err := h.service.SubmitWithFastPath(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handlers) GetJob(c *fiber.Ctx) error {
	snap, err := h.service.Poll(c.UserContext(), c.Params("job_id"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *Handlers) submit(c *fiber.Ctx, in predictor.Input) error {
	id, err := h.service.Submit(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"job_id": id})
}

func parseInput(c *fiber.Ctx) (predictor.Input, error) {
	var in predictor.Input
	if err := c.BodyParser(&in); err != nil {
		return in, predictor.Errors().NewWithCause(predictor.ErrInvalidInput, err).
			WithDetail("reason", "request body must be JSON like {\"data\": [[...]]}")
	}
	return in, nil
}
