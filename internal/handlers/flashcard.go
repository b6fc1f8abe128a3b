package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/aivy-app/aivy-backend/internal/services"
)

type FlashcardHandler struct {
	flashcardService services.FlashcardService
}

func NewFlashcardHandler(flashcardService services.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcardService: flashcardService}
}

func (fh *FlashcardHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if topic := c.Query("topic"); topic != "" {
		cards, err := fh.flashcardService.ListByTopic(c.Request.Context(), userID, topic)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"flashcards": cards})
		return
	}
	cards, err := fh.flashcardService.ListByUser(c.Request.Context(), userID, queryInt(c, "limit", 0))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"flashcards": cards})
}
