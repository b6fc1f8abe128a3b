package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/aivy-app/aivy-backend/internal/services"
)

type PetHandler struct {
	petService services.PetService
}

func NewPetHandler(petService services.PetService) *PetHandler {
	return &PetHandler{petService: petService}
}

func (ph *PetHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	pet, err := ph.petService.Get(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pet)
}

func (ph *PetHandler) Feed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	pet, err := ph.petService.Feed(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pet)
}

func (ph *PetHandler) Play(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	pet, err := ph.petService.Play(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pet)
}
