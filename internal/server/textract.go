package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/textract"
)

type startRequest struct {
	DocumentLocation struct {
		S3Object entity.DocumentLocation `json:"S3Object"`
	} `json:"DocumentLocation"`
}

type getRequest struct {
	JobID      string `json:"JobId"`
	MaxResults int    `json:"MaxResults"`
	NextToken  string `json:"NextToken"`
}

// startDocumentTextDetection handles POST /textract/start-document-text-detection
func (s *Server) startDocumentTextDetection(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, err)
		return
	}
	var req startRequest
	if err := decode(startSchema, body, &req); err != nil {
		s.fail(c, err)
		return
	}

	jobID, err := s.textract.StartDocumentTextDetection(c.Request.Context(), req.DocumentLocation.S3Object)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"JobId": jobID})
}

// getDocumentTextDetectionQuery handles GET /textract/get-document-text-detection
func (s *Server) getDocumentTextDetectionQuery(c *gin.Context) {
	in := map[string]any{"JobId": c.Query("JobId")}
	req := getRequest{JobID: c.Query("JobId"), NextToken: c.Query("NextToken")}
	if raw, ok := c.GetQuery("MaxResults"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			in["MaxResults"] = raw
		} else {
			in["MaxResults"] = float64(n)
			req.MaxResults = n
		}
	}
	if req.NextToken != "" {
		in["NextToken"] = req.NextToken
	}
	if err := validateValue(getSchema, in); err != nil {
		s.fail(c, err)
		return
	}
	s.getDocumentTextDetection(c, req)
}

// getDocumentTextDetectionBody handles POST /textract/get-document-text-detection
func (s *Server) getDocumentTextDetectionBody(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, err)
		return
	}
	var req getRequest
	if err := decode(getSchema, body, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.getDocumentTextDetection(c, req)
}

func (s *Server) getDocumentTextDetection(c *gin.Context, req getRequest) {
	res, err := s.textract.GetDocumentTextDetection(c.Request.Context(), textract.GetRequest{
		JobID:      req.JobID,
		MaxResults: req.MaxResults,
		NextToken:  req.NextToken,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// listJobs handles GET /textract/list-jobs. Blocks are never included.
func (s *Server) listJobs(c *gin.Context) {
	jobs := s.textract.ListJobs(c.Request.Context())
	summaries := make([]entity.JobSummary, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, j.Summary())
	}

	if c.Query("format") == "xlsx" {
		s.writeJobsXLSX(c, "jobs.xlsx", summaries)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Jobs": summaries})
}

// listArchivedJobs handles GET /textract/archived-jobs
func (s *Server) listArchivedJobs(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job archive is not configured"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	summaries, err := s.archive.List(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		s.writeJobsXLSX(c, "archived-jobs.xlsx", summaries)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Jobs": summaries})
}

// getArchivedJob handles GET /textract/archived-jobs/:jobId
func (s *Server) getArchivedJob(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job archive is not configured"})
		return
	}
	summary, err := s.archive.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
