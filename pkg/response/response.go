package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the uniform API envelope.
type Response struct {
	Code    int         `json:"code"`    // business code, 0 on success
	Message string      `json:"message"` // human readable status
	Data    interface{} `json:"data"`    // payload
}

// Success writes a 200 response with a zero business code.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error writes a response with an explicit HTTP status and business code.
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail writes a business failure (HTTP 200, non-zero business code).
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}
