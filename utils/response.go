package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the wire shape of every API answer. Code 0 means success;
// non-zero codes are five-digit application codes whose first three digits
// follow the HTTP status family (401xx auth, 400xx validation, 404xx not
// found, 409xx conflict, 429xx throttling, 500xx server).
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes an envelope with the given HTTP status.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, Envelope{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success answers 200 with code 0 and the payload.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error answers with an application code and no payload.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
