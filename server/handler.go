package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/krau/plantclassifier/engine"
	"github.com/krau/plantclassifier/model"
	"github.com/krau/plantclassifier/service"
)

const errInternal = "internal server error"

var (
	errUnauthorized   = errors.New("unauthorized")
	errInvalidRequest = errors.New("invalid request")
)

func (s *Server) authenticate(c *gin.Context) {
	expectedToken := s.cfg.Token
	if expectedToken == "" {
		c.Next()
		return
	}
	auth := c.GetHeader("Authorization")
	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(expectedToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": errUnauthorized.Error()})
		return
	}
	c.Next()
}

func (s *Server) PredictHandler(c *gin.Context) {
	res, err := s.classify(c)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Prediction failed", slog.String("error", err.Error()))
			predictions.WithLabelValues("error").Inc()
		} else {
			predictions.WithLabelValues("rejected").Inc()
		}
		c.JSON(status, gin.H{"success": false, "error": msg})
		return
	}

	predictions.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"class":      res.Label,
		"confidence": FormatConfidence(res.Confidence),
	})
}

// multipartOverhead is the room left for multipart framing and other form
// fields on top of the image size limit.
const multipartOverhead = 1 << 20

// classify reads the image from the image_file upload or, failing that, the
// image_url JSON/form field.
func (s *Server) classify(c *gin.Context) (*service.Result, error) {
	if s.cfg.MaxImageBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxImageBytes+multipartOverhead)
	}

	var imageURL string
	if c.ContentType() == gin.MIMEJSON {
		var req struct {
			ImageURL string `json:"image_url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
		imageURL = req.ImageURL
	} else {
		fileHeader, err := c.FormFile("image_file")
		switch {
		case err == nil && fileHeader.Filename != "":
			if s.cfg.MaxImageBytes > 0 && fileHeader.Size > s.cfg.MaxImageBytes {
				return nil, fmt.Errorf("%w: image larger than %d bytes", errInvalidRequest, s.cfg.MaxImageBytes)
			}
			file, err := fileHeader.Open()
			if err != nil {
				return nil, fmt.Errorf("%w: cannot open uploaded file", errInvalidRequest)
			}
			defer file.Close()
			return s.classifier.ClassifyReader(file)
		case err == nil, errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		default:
			return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
		imageURL = c.PostForm("image_url")
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, service.ErrNoImage
	}
	return s.classifier.ClassifyURL(c.Request.Context(), imageURL)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrModelNotLoaded):
		return http.StatusServiceUnavailable, engine.ErrModelNotLoaded.Error()
	case errors.Is(err, errInvalidRequest), service.IsAcquisitionError(err):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// FormatConfidence renders a [0,1] confidence as a percentage with three
// decimals.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.3f%%", c*100)
}

func (s *Server) StatusHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "status", model.Describe(s.engine, s.cfg))
}

func (s *Server) PredictPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "predict", nil)
}

func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "model_loaded": s.engine.Loaded()})
}
