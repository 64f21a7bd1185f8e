package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON body under /api/alert-channels uses.
// Code 0 means success; non-zero mirrors the HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError carries an HTTP status alongside the message so handlers can
// return errors from services and map them in one place.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string { return e.Message }

func newAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError  { return newAppError(http.StatusBadRequest, msg) }
func NewNotFound(msg string) *AppError    { return newAppError(http.StatusNotFound, msg) }
func NewConflict(msg string) *AppError    { return newAppError(http.StatusConflict, msg) }
func NewServerError(msg string) *AppError { return newAppError(http.StatusInternalServerError, msg) }

// Success writes 200 with data in the envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

// Created writes 201 with data in the envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Error maps an *AppError to its status and code; anything else becomes
// a 500 with the error text.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{Code: appErr.Code, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: status, Message: msg})
}

func BadRequest(c *gin.Context, msg string)  { fail(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)    { fail(c, http.StatusNotFound, msg) }
func ServerError(c *gin.Context, msg string) { fail(c, http.StatusInternalServerError, msg) }
