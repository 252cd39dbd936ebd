package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/services"
)

type ReportController struct {
	ingest *services.IngestService
}

func NewReportController(ingest *services.IngestService) *ReportController {
	return &ReportController{ingest: ingest}
}

// UploadReport accepts a multipart .xlsx sales report, extracts the cell grid
// from the first sheet and runs ingestion. Form fields: file, period
// (YYYY-MM), force (optional).
func (rc *ReportController) UploadReport(c echo.Context) error {
	period := c.FormValue("period")
	if period == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period form field is required (YYYY-MM)",
		})
	}
	if _, err := time.Parse("2006-01", period); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period must be a calendar month in YYYY-MM format",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "file form field is required",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to open uploaded file",
		})
	}
	defer src.Close()

	workbook, err := excelize.OpenReader(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Uploaded file is not a readable spreadsheet",
		})
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Spreadsheet has no sheets",
		})
	}

	cells, err := workbook.GetRows(sheets[0])
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Failed to read spreadsheet rows",
		})
	}

	// First row is the header of the report template.
	var rows []models.ReportRow
	for i, cellRow := range cells {
		if i == 0 {
			continue
		}
		row := make(models.ReportRow, len(cellRow))
		for j, cell := range cellRow {
			row[j] = cell
		}
		rows = append(rows, row)
	}

	return rc.runIngest(c, rows, services.IngestOptions{
		Period:     period,
		SourceFile: fileHeader.Filename,
		Force:      c.FormValue("force") == "true",
		ActorID:    adminActorID(c),
	})
}

// IngestRows is the JSON variant for callers that already extracted rows.
func (rc *ReportController) IngestRows(c echo.Context) error {
	var req models.IngestRowsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period and rows are required",
		})
	}
	if _, err := time.Parse("2006-01", req.Period); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period must be a calendar month in YYYY-MM format",
		})
	}

	return rc.runIngest(c, req.Rows, services.IngestOptions{
		BatchID: req.BatchID,
		Period:  req.Period,
		Force:   req.Force,
		ActorID: adminActorID(c),
	})
}

func (rc *ReportController) runIngest(c echo.Context, rows []models.ReportRow, opts services.IngestOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := rc.ingest.Ingest(ctx, rows, opts)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateBatch) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Batch ingestion failed: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Report ingested successfully",
		Data:    result,
	})
}
