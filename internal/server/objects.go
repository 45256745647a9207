package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/storage"
)

type objectRequest struct {
	Bucket string `json:"Bucket"`
	Key    string `json:"Key"`
}

type copyRequest struct {
	CopySource string `json:"CopySource"`
	Bucket     string `json:"Bucket"`
	Key        string `json:"Key"`
}

// pathObject reads /object/:bucket/*key. gin keeps the leading slash on *key.
func pathObject(c *gin.Context) (string, string) {
	return c.Param("bucket"), strings.TrimPrefix(c.Param("key"), "/")
}

func (s *Server) bodyObject(c *gin.Context) (objectRequest, bool) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, err)
		return objectRequest{}, false
	}
	var req objectRequest
	if err := decode(objectSchema, body, &req); err != nil {
		s.fail(c, err)
		return objectRequest{}, false
	}
	return req, true
}

// headObject handles HEAD /s3/object/:bucket/*key
func (s *Server) headObject(c *gin.Context) {
	bucket, key := pathObject(c)
	info, err := s.store.Head(c.Request.Context(), bucket, key)
	if err != nil {
		c.Status(httpStatus(err))
		return
	}
	setObjectHeaders(c, info)
	c.Status(http.StatusOK)
}

// headObjectBody handles POST /s3/head-object
func (s *Server) headObjectBody(c *gin.Context) {
	req, ok := s.bodyObject(c)
	if !ok {
		return
	}
	info, err := s.store.Head(c.Request.Context(), req.Bucket, req.Key)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// getObject handles GET /s3/object/:bucket/*key
func (s *Server) getObject(c *gin.Context) {
	bucket, key := pathObject(c)
	s.writeObject(c, bucket, key)
}

// getObjectBody handles POST /s3/get-object
func (s *Server) getObjectBody(c *gin.Context) {
	req, ok := s.bodyObject(c)
	if !ok {
		return
	}
	s.writeObject(c, req.Bucket, req.Key)
}

func (s *Server) writeObject(c *gin.Context, bucket, key string) {
	data, err := s.store.Read(c.Request.Context(), bucket, key)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// putObject handles PUT /s3/object/:bucket/*key. The object is either the
// multipart field "Body" or the raw request body.
func (s *Server) putObject(c *gin.Context) {
	bucket, key := pathObject(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		data, err = formFile(c, "Body")
	} else {
		data, err = io.ReadAll(c.Request.Body)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.storeObject(c, bucket, key, data)
}

// putObjectForm handles POST /s3/put-object with multipart fields Bucket, Key and file.
func (s *Server) putObjectForm(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	in := map[string]any{"Bucket": c.PostForm("Bucket"), "Key": c.PostForm("Key")}
	if err := validateValue(objectSchema, in); err != nil {
		s.fail(c, err)
		return
	}
	data, err := formFile(c, "file")
	if err != nil {
		s.fail(c, err)
		return
	}
	s.storeObject(c, c.PostForm("Bucket"), c.PostForm("Key"), data)
}

func (s *Server) storeObject(c *gin.Context, bucket, key string, data []byte) {
	info, err := s.store.Write(c.Request.Context(), bucket, key, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	common.LoggerFrom(c.Request.Context(), s.logger).Info("object stored",
		"bucket", bucket, "key", key, "size", info.Size, "content_type", info.ContentType)
	c.JSON(http.StatusOK, info)
}

// deleteObject handles DELETE /s3/object/:bucket/*key
func (s *Server) deleteObject(c *gin.Context) {
	bucket, key := pathObject(c)
	s.removeObject(c, bucket, key)
}

// deleteObjectBody handles POST /s3/delete-object
func (s *Server) deleteObjectBody(c *gin.Context) {
	req, ok := s.bodyObject(c)
	if !ok {
		return
	}
	s.removeObject(c, req.Bucket, req.Key)
}

func (s *Server) removeObject(c *gin.Context, bucket, key string) {
	if err := s.store.Delete(c.Request.Context(), bucket, key); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// copyObject handles POST /s3/copy-object
func (s *Server) copyObject(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, err)
		return
	}
	var req copyRequest
	if err := decode(copySchema, body, &req); err != nil {
		s.fail(c, err)
		return
	}
	src, err := storage.ParseCopySource(req.CopySource)
	if err != nil {
		s.fail(c, err)
		return
	}
	info, err := s.store.Copy(c.Request.Context(), src, entity.DocumentLocation{Bucket: req.Bucket, Key: req.Key})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func formFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, common.BadRequestf("multipart field %q is required", field)
	}
	return readPart(fh)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, common.WrapError(err, "open upload")
	}
	defer f.Close()
	return io.ReadAll(f)
}

func setObjectHeaders(c *gin.Context, info storage.ObjectInfo) {
	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	if !info.LastModified.IsZero() {
		c.Header("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
}
