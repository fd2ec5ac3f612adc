package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sleep-tracker/internal/bot"
	"github.com/tbourn/go-sleep-tracker/internal/sysutil"
)

// BotUpdate godoc
// @ID          botUpdate
// @Summary     Handle a chat update
// @Description Feeds one chat update (command, free text or button press) to the bot and returns the messages to send back. The user id in the body must match X-User-ID.
// @Tags        Bot
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  int         true  "Chat user id"  example(42)
// @Param       body       body    bot.Update  true  "Update"
//
// @Success     200  {object} bot.Reply
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Router      /bot/updates [post]
func (h *Handlers) BotUpdate(c *gin.Context) {
	uid, name, okUser := caller(c)
	if !okUser {
		return
	}
	var u bot.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if u.UserID == 0 {
		u.UserID = uid
	}
	if u.UserID != uid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id does not match X-User-ID")
		return
	}
	u.FirstName = sysutil.FirstNonEmpty(u.FirstName, name)
	if u.Text == "" && u.CallbackData == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text or callback_data is required")
		return
	}
	ok(c, http.StatusOK, h.bot.Handle(c.Request.Context(), u))
}
