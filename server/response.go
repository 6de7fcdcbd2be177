package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/etnz/budget"
	"github.com/gin-gonic/gin"
)

// mutatedKey is set on the gin context when a request changed a store.
const mutatedKey = "budget.mutated"

// statusOf maps an error to an http status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, budget.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, budget.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, budget.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, budget.ErrBusinessRule):
		return http.StatusUnprocessableEntity
	case errors.Is(err, budget.ErrRateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fromWebUI reports whether the request comes from a web form that expects to be redirected.
func fromWebUI(c *gin.Context) bool {
	return newParams(c).has("server")
}

// redirect sends the browser back to the page it came from, with the outcome in the query.
func redirect(c *gin.Context, outcome, message string) {
	back, _ := newParams(c).lookup("back_page")
	c.Redirect(http.StatusFound, back+"?"+outcome+"=true&message="+url.QueryEscape(message))
}

// success reports a successful mutation.
// content is the plain text body, if empty the message is sent instead.
func success(c *gin.Context, message, content string) {
	c.Set(mutatedKey, true)
	if fromWebUI(c) {
		redirect(c, "success", message)
		return
	}
	if content == "" {
		content = "Success: " + message
	}
	c.String(http.StatusOK, content)
}

// content sends a read-only result.
func content(c *gin.Context, body string) {
	c.String(http.StatusOK, body)
}

// fail reports err to the client.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if fromWebUI(c) {
		redirect(c, "error", err.Error())
		return
	}
	c.String(statusOf(err), "Error: "+err.Error())
}
