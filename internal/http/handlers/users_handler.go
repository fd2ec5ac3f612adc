package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sleep-tracker/internal/sysutil"
)

// RegisterUserRequest optionally overrides the X-User-Name header.
type RegisterUserRequest struct {
	Name string `json:"name" example:"Ann"`
}

// RegisterMe godoc
// @ID          registerMe
// @Summary     Register the calling user
// @Description Records the user if unknown. An existing user keeps the name first recorded.
// @Tags        Users
// @Accept      json
//
// @Param       X-User-ID    header  int     true   "Chat user id"  example(42)
// @Param       X-User-Name  header  string  false  "Display name"  example(Ann)
// @Param       body         body    handlers.RegisterUserRequest  false  "Optional name"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Missing user id"
// @Router      /users/me [put]
func (h *Handlers) RegisterMe(c *gin.Context) {
	uid, name, okUser := caller(c)
	if !okUser {
		return
	}
	if c.Request.ContentLength != 0 {
		var req RegisterUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		name = strings.TrimSpace(sysutil.FirstNonEmpty(req.Name, name))
	}
	h.sessions.Register(c.Request.Context(), uid, name)
	noContent(c)
}
