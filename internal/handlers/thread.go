package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/aivy-app/aivy-backend/internal/agent"
	"github.com/aivy-app/aivy-backend/internal/services"
)

type ThreadHandler struct {
	chatService services.ChatService
}

func NewThreadHandler(chatService services.ChatService) *ThreadHandler {
	return &ThreadHandler{chatService: chatService}
}

func (th *ThreadHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		SpaceID string `json:"space_id"`
		Title   string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	spaceID, ok := parseUUID(c, "space_id", req.SpaceID)
	if !ok {
		return
	}
	thread, err := th.chatService.CreateThread(c.Request.Context(), userID, spaceID, req.Title)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, thread)
}

func (th *ThreadHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	threadID, ok := pathUUID(c, "thread_id")
	if !ok {
		return
	}
	thread, err := th.chatService.GetThread(c.Request.Context(), userID, threadID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, thread)
}

func (th *ThreadHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 0)
	threads, err := th.chatService.ListThreads(c.Request.Context(), userID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"threads": threads})
}

func (th *ThreadHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	threadID, ok := pathUUID(c, "thread_id")
	if !ok {
		return
	}
	messages, err := th.chatService.History(c.Request.Context(), userID, threadID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}

func (th *ThreadHandler) Checkpoints(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	threadID, ok := pathUUID(c, "thread_id")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 20)
	var beforeSeq *int64
	if raw := c.Query("before_seq"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_cursor", err)
			return
		}
		beforeSeq = &v
	}
	snaps, err := th.chatService.ListCheckpoints(c.Request.Context(), userID, threadID, limit, beforeSeq)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"checkpoints": snaps})
}

func (th *ThreadHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	threadID, ok := pathUUID(c, "thread_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := th.chatService.SendMessage(c.Request.Context(), userID, threadID, req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"assistant": result.Assistant,
		"sequence":  result.Sequence,
	})
}

// StreamMessage runs one turn and relays orchestrator events as SSE. Events
// arrive from the turn goroutine; writes are serialized because gin's
// ResponseWriter is not safe for concurrent use.
func (th *ThreadHandler) StreamMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	threadID, ok := pathUUID(c, "thread_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	var mu sync.Mutex
	emit := func(ev agent.StreamEvent) {
		mu.Lock()
		defer mu.Unlock()
		raw, err := json.Marshal(ev)
		if err != nil {
			return
		}
		writeSSE(c.Writer, ev.Type, string(raw))
		c.Writer.Flush()
	}

	_, err := th.chatService.StreamMessage(c.Request.Context(), userID, threadID, req.Content, emit)
	if err != nil {
		emit(agent.StreamEvent{Type: "error", Delta: err.Error()})
	}
}

func writeSSE(w http.ResponseWriter, event string, data string) {
	if strings.TrimSpace(event) != "" {
		fmt.Fprintf(w, "event: %s\n", strings.TrimSpace(event))
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
