package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carevia/carevia-api/internal/models"
	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// ListEnvelope is the contract for collection reads. Degraded and Stale are
// emitted even when false so consumers can key off them unconditionally.
type ListEnvelope struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Degraded bool        `json:"degraded"`
	Stale    bool        `json:"stale"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// List sends a collection response with degradation markers.
func List(c *gin.Context, items interface{}, total int, degraded, stale bool) {
	c.Header("Cache-Control", "no-store")
	if stale {
		c.Header("X-Served-From-Cache", "true")
	}
	c.JSON(http.StatusOK, ListEnvelope{Items: items, Total: total, Degraded: degraded, Stale: stale})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
