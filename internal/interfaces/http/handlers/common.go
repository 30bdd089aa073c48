package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MetaNet/internal/interfaces/http/middleware"
	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
)

// respond writes data wrapped in the standard envelope.
func respond[T any](c *gin.Context, status int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// respondError maps err to a status through its code.  Server-side failures
// are masked; their details go to the request log.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	message, detail := errors.DefaultMessageForCode(code), ""
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		message = ae.Message
	}
	// The innermost detail names the offending input.
	for e := err; stderrors.As(e, &ae); e = ae.Cause {
		if ae.Detail != "" {
			detail = ae.Detail
		}
	}
	if status >= http.StatusInternalServerError {
		message, detail = errors.DefaultMessageForCode(code), ""
	}
	_ = c.Error(err)

	resp := common.NewErrorResponse(code.String(), message, detail)
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

// pathID parses a decimal integer path parameter.  Component ids carry no
// sign constraint, so a negative id is looked up like any other.
func pathID(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(name, "must be an integer").WithDetail(name + "=" + raw)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body").WithDetail(err.Error())
	}
	return nil
}
