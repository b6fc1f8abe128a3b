package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aivy-app/aivy-backend/internal/agent"
	"github.com/aivy-app/aivy-backend/internal/services"
)

type DocumentHandler struct {
	documentService  services.DocumentService
	retrievalService services.RetrievalService
}

func NewDocumentHandler(documentService services.DocumentService, retrievalService services.RetrievalService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, retrievalService: retrievalService}
}

func (dh *DocumentHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		SpaceID  string  `json:"space_id"`
		ThreadID *string `json:"thread_id"`
		Name     string  `json:"name"`
		Text     string  `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	spaceID, ok := parseUUID(c, "space_id", req.SpaceID)
	if !ok {
		return
	}
	var threadID *uuid.UUID
	if req.ThreadID != nil && *req.ThreadID != "" {
		id, ok := parseUUID(c, "thread_id", *req.ThreadID)
		if !ok {
			return
		}
		threadID = &id
	}
	doc, err := dh.documentService.Create(c.Request.Context(), services.CreateDocumentInput{
		UserID:   userID,
		SpaceID:  spaceID,
		ThreadID: threadID,
		Name:     req.Name,
		Text:     req.Text,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, doc)
}

// Search exposes the same tiered retrieval the agent uses. Scope narrows by
// whatever ids the caller provides; user id always comes from the session.
func (dh *DocumentHandler) Search(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Query    string `json:"query"`
		Limit    int    `json:"limit"`
		SpaceID  string `json:"space_id"`
		ThreadID string `json:"thread_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}
	scope := agent.Scope{UserID: userID}
	if req.SpaceID != "" {
		id, ok := parseUUID(c, "space_id", req.SpaceID)
		if !ok {
			return
		}
		scope.SpaceID = id
	}
	if req.ThreadID != "" {
		id, ok := parseUUID(c, "thread_id", req.ThreadID)
		if !ok {
			return
		}
		scope.ThreadID = id
	}
	results, err := dh.retrievalService.Search(c.Request.Context(), req.Query, req.Limit, scope)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

func (dh *DocumentHandler) ListBySpace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	spaceID, ok := pathUUID(c, "space_id")
	if !ok {
		return
	}
	docs, err := dh.documentService.ListBySpace(c.Request.Context(), userID, spaceID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}
