package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/claimgraph/internal/queue"
	"github.com/OFFIS-RIT/claimgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateRunHandler schedules a graph build for input files that already
// live in the bucket.
func CreateRunHandler(c echo.Context) error {
	type createRunBody struct {
		TriplesKey   string `json:"triples_key" validate:"required"`
		SentencesKey string `json:"sentences_key"`
		AlignPolicy  string `json:"align_policy" validate:"omitempty,oneof=substring token"`
	}

	type createRunResponse struct {
		Message string `json:"message"`
		RunID   string `json:"run_id,omitempty"`
	}

	data := new(createRunBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}

	runID, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate run id", "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	msg, err := queue.BuildMessage{
		RunID:        runID,
		TriplesKey:   data.TriplesKey,
		SentencesKey: data.SentencesKey,
		AlignPolicy:  data.AlignPolicy,
	}.Encode()
	if err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if err := queue.PublishFIFO(app.Queue, queue.GraphBuildQueue, msg); err != nil {
		logger.Error("Failed to publish build message", "run_id", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("Run scheduled", "run_id", runID, "triples_key", data.TriplesKey)
	return c.JSON(http.StatusAccepted, createRunResponse{
		Message: "Run scheduled",
		RunID:   runID,
	})
}
