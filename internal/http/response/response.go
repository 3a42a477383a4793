package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps err onto the error envelope. Errors that are not *apierr.Error
// are recorded on the gin context for the access log and reported as a generic 500.
func RespondAPIError(c *gin.Context, err error) {
	if e, ok := apierr.As(err); ok {
		msg := e.Error()
		if e.Status >= http.StatusInternalServerError {
			_ = c.Error(err)
			if e.Code == apierr.CodeInternal {
				msg = "internal server error"
			}
		}
		c.AbortWithStatusJSON(e.Status, ErrorEnvelope{
			Error: APIError{Message: msg, Code: e.Code},
		})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{
		Error: APIError{Message: "internal server error", Code: apierr.CodeInternal},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
