package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ownerlookup/cache"
	"github.com/use-agent/ownerlookup/models"
	"github.com/use-agent/ownerlookup/pipeline"
	"github.com/use-agent/ownerlookup/spreadsheet"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// maxUploadBytes bounds an uploaded workbook.
	maxUploadBytes = 10 << 20

	// SummaryHeader carries the JSON run summary of an enrich response.
	SummaryHeader = "X-Ownerlookup-Summary"
)

// Enrich returns a handler for POST /api/v1/enrich.
//
// The request is a multipart form with the workbook in field "file". The
// response is the same workbook with the contact column filled in.
func Enrich(lk pipeline.Lookuper, cc *cache.Cache, maxAge time.Duration, states []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			abortInvalid(c, "missing workbook: upload it in multipart field \"file\"")
			return
		}
		if fh.Size > maxUploadBytes {
			abortInvalid(c, fmt.Sprintf("workbook exceeds %d bytes", maxUploadBytes))
			return
		}

		f, err := fh.Open()
		if err != nil {
			abortInvalid(c, err.Error())
			return
		}
		defer f.Close()

		t, err := spreadsheet.Read(f)
		if err != nil {
			respondRunError(c, err, nil)
			return
		}

		summary, err := pipeline.NewEnricher(lk, cc, maxAge, states).Enrich(c.Request.Context(), t)
		if err != nil {
			respondRunError(c, err, summary)
			return
		}

		var buf bytes.Buffer
		if err := spreadsheet.Write(&buf, t); err != nil {
			respondRunError(c, err, summary)
			return
		}

		if raw, err := json.Marshal(summary); err == nil {
			c.Header(SummaryHeader, string(raw))
		}
		slog.Info("workbook enriched",
			"file", fh.Filename,
			"rows", summary.Rows,
			"matched", summary.Matched,
		)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "updated-"+filepath.Base(fh.Filename)))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

// respondRunError writes a structured error for a failed enrich run.
func respondRunError(c *gin.Context, err error, summary *models.RunSummary) {
	se := asScrapeError(err)
	c.JSON(mapErrorToStatus(se), gin.H{
		"success": false,
		"error":   se.ToDetail(),
		"summary": summary,
	})
}
