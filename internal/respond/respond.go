// Package respond renders the uniform JSON envelopes:
// success {status:"success", data}, 4xx {status:"fail", message},
// 5xx {status:"error", message} with internals suppressed.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberhq/ember-api/internal/apperrors"
	"github.com/emberhq/ember-api/internal/logger"
)

// Page is the payload shape for offset-paginated listings.
type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
}

func NewPage(items interface{}, page, limit int, total int64) Page {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{Items: items, Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Success writes the success envelope.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// Err maps err to an API error and writes the fail/error envelope. Internal
// detail is logged server-side and never sent to the client.
func Err(c *gin.Context, err error) {
	apiErr := apperrors.Map(err)
	if apiErr == nil {
		return
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error("internal error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", apiErr.Message,
		)
		c.AbortWithStatusJSON(apiErr.Status, gin.H{
			"status":  "error",
			"message": "something went wrong",
		})
		return
	}

	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"status":  "fail",
		"message": apiErr.Message,
	})
}
