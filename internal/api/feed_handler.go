package api

import (
	"alcyxob/fitness-social/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedService service.FeedService
}

func NewFeedHandler(feedService service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// GetFeed godoc
// @Summary Public workouts of every user, newest first
// @Description Invalid or missing paging values fall back to the defaults.
// @Tags Feed
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param itemsPerPage query int false "Page size"
// @Success 200 {array} domain.FeedWorkout
// @Router /feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	// unparsable values become 0 and the service applies its defaults
	page, _ := strconv.Atoi(c.Query("page"))
	itemsPerPage, _ := strconv.Atoi(c.Query("itemsPerPage"))

	feed, err := h.feedService.Feed(c.Request.Context(), page, itemsPerPage)
	if err != nil {
		respondError(c, err, "Failed to load the feed.")
		return
	}
	c.JSON(http.StatusOK, feed)
}
