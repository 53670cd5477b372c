package network

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/pkg/errors"
)

// appError is the body of every failed request.
type appError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	switch common.KindOf(err) {
	case common.KindState:
		return http.StatusConflict
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindCommitment, common.KindBetting, common.KindProof, common.KindDeck:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an appError and aborts the chain.
func fail(c *gin.Context, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, appError{Code: code, Kind: common.KindOf(err).String(), Message: msg})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, appError{Code: http.StatusBadRequest, Kind: "request", Message: err.Error()})
}
