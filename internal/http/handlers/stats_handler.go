package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sleep-tracker/internal/search"
	"github.com/tbourn/go-sleep-tracker/internal/utils"
)

// RecommendationsResponse lists tips for a topic; every tip when q is blank.
type RecommendationsResponse struct {
	Query string          `json:"query"`
	Tips  []search.Result `json:"tips"`
}

// GetStats godoc
// @ID          getStats
// @Summary     Sleep statistics
// @Description Number of finished sessions with total and average duration, truncated to whole minutes.
// @Tags        Stats
// @Produce     json
//
// @Param       X-User-ID  header  int  true  "Chat user id"  example(42)
//
// @Success     200  {object} services.Summary
// @Failure     404  {object} handlers.ErrorResponse "no_data"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	uid, _, okUser := caller(c)
	if !okUser {
		return
	}
	sum, err := h.stats.Summary(c.Request.Context(), uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// GetRecommendations godoc
// @ID          getRecommendations
// @Summary     Sleep tips
// @Description Returns every tip when q is empty, otherwise up to k tips ranked by word overlap with q.
// @Tags        Stats
// @Produce     json
//
// @Param       q  query  string  false  "Topic"          example(earplugs)
// @Param       k  query  int     false  "Max tips"       minimum(1) maximum(20) default(3)
//
// @Success     200  {object} handlers.RecommendationsResponse
// @Router      /recommendations [get]
func (h *Handlers) GetRecommendations(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	_, k := utils.ClampPage(1, utils.AtoiDefault(c.Query("k"), 3), 20)

	tips := h.tips.Recommend(q, k)
	if tips == nil {
		tips = []search.Result{}
	}
	ok(c, http.StatusOK, RecommendationsResponse{Query: q, Tips: tips})
}
