package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) writeJobsXLSX(c *gin.Context, filename string, summaries []entity.JobSummary) {
	ctx := c.Request.Context()
	xlsx, err := s.exporter.JobsXLSX(ctx, summaries)
	if err != nil {
		common.LoggerFrom(ctx, s.logger).Error("export.xlsx.failed", "jobs", len(summaries), "err", err)
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, xlsx)
}
