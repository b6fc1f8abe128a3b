package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aivy-app/aivy-backend/internal/requestdata"
	"github.com/aivy-app/aivy-backend/internal/services"
)

type SpaceHandler struct {
	spaceService services.SpaceService
}

func NewSpaceHandler(spaceService services.SpaceService) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService}
}

func (sh *SpaceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	space, err := sh.spaceService.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, space)
}

func (sh *SpaceHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	spaceID, ok := pathUUID(c, "space_id")
	if !ok {
		return
	}
	space, err := sh.spaceService.Get(c.Request.Context(), userID, spaceID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, space)
}

func (sh *SpaceHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	spaces, err := sh.spaceService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"spaces": spaces})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", fmt.Errorf("no authenticated user"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	return parseUUID(c, name, c.Param(name))
}

func parseUUID(c *gin.Context, name, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid %s: %w", name, err))
		return uuid.Nil, false
	}
	return id, true
}
