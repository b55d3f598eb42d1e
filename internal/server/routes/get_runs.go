package routes

import (
	"net/http"
	"path"
	"regexp"
	"time"

	"github.com/OFFIS-RIT/claimgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/claimgraph/internal/server/util"
	"github.com/OFFIS-RIT/claimgraph/internal/storage"
	"github.com/OFFIS-RIT/claimgraph/pkg/export"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

const downloadLinkExpiry = 15 * time.Minute

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var runOutputs = []string{export.NodesFile, export.EdgesFile, export.ReportFile}

type runFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type runResponse struct {
	Message string    `json:"message,omitempty"`
	RunID   string    `json:"run_id,omitempty"`
	Status  string    `json:"status,omitempty"`
	Files   []runFile `json:"files,omitempty"`
}

func listRunKeys(c echo.Context, runID string) ([]string, error) {
	app := c.(*middleware.AppContext).App
	return storage.ListFilesWithPrefix(
		c.Request().Context(),
		app.S3,
		app.Bucket,
		storage.RunPrefix(runID)+"/",
	)
}

// GetRunHandler reports whether the exports of a run are available.
func GetRunHandler(c echo.Context) error {
	runID := c.Param("id")
	if !runIDPattern.MatchString(runID) {
		return c.JSON(http.StatusBadRequest, runResponse{Message: "Invalid run id"})
	}

	keys, err := listRunKeys(c, runID)
	if err != nil {
		logger.Error("Failed to list run files", "run_id", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, runResponse{
		RunID:  runID,
		Status: util.RunStatusFromKeys(keys, runOutputs...),
	})
}

// GetRunExportsHandler returns presigned download links for the tables and
// the report of a finished run.
func GetRunExportsHandler(c echo.Context) error {
	runID := c.Param("id")
	if !runIDPattern.MatchString(runID) {
		return c.JSON(http.StatusBadRequest, runResponse{Message: "Invalid run id"})
	}

	keys, err := listRunKeys(c, runID)
	if err != nil {
		logger.Error("Failed to list run files", "run_id", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
	}

	status := util.RunStatusFromKeys(keys, runOutputs...)
	if status != util.RunStatusProcessed {
		return c.JSON(http.StatusNotFound, runResponse{
			Message: "Exports not available",
			RunID:   runID,
			Status:  status,
		})
	}

	app := c.(*middleware.AppContext).App
	files := make([]runFile, 0, len(runOutputs))
	for _, name := range runOutputs {
		link, err := storage.GenerateDownloadLink(
			c.Request().Context(),
			app.S3,
			app.Bucket,
			app.PublicEndpoint,
			path.Join(storage.RunPrefix(runID), name),
			downloadLinkExpiry,
		)
		if err != nil {
			logger.Error("Failed to generate download link", "run_id", runID, "file", name, "err", err)
			return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
		}
		files = append(files, runFile{Name: name, URL: link})
	}

	return c.JSON(http.StatusOK, runResponse{
		RunID:  runID,
		Status: status,
		Files:  files,
	})
}
