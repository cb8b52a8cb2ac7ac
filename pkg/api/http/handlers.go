package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"github.com/aescanero/pluginbus/pkg/ports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxJournalLimit = 1000

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// EventSummary describes one event name
type EventSummary struct {
	Name      string `json:"name"`
	Listeners int    `json:"listeners"`
	History   int    `json:"history"`
}

// PluginSummary describes one attached plugin
type PluginSummary struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStats returns the manager's sizes
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.manager.Stats()})
}

// handleListPlugins lists attached plugins in attachment order
func (s *Server) handleListPlugins(c *gin.Context) {
	plugins := s.manager.Plugins()

	out := make([]PluginSummary, len(plugins))
	for i, p := range plugins {
		out[i] = PluginSummary{Index: i, Name: pluginmanager.PluginName(p)}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  out,
		"total": len(out),
	})
}

// handleListEvents lists every known event with its listener and history counts
func (s *Server) handleListEvents(c *gin.Context) {
	names := s.manager.Events()

	out := make([]EventSummary, len(names))
	for i, name := range names {
		out[i] = EventSummary{
			Name:      name,
			Listeners: s.manager.Listeners(name),
			History:   s.manager.HistoryLen(name),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  out,
		"total": len(out),
	})
}

// handleGetHistory returns the recorded argument lists of an event
func (s *Server) handleGetHistory(c *gin.Context) {
	name := c.Param("name")

	history := s.manager.History(name)
	if history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Event has no history",
			},
		})
		return
	}

	for i, args := range history {
		history[i] = ports.EncodableArgs(args)
	}

	s.writeJSON(c, http.StatusOK, gin.H{
		"event": name,
		"data":  history,
		"total": len(history),
	})
}

// handleGetJournal returns the most recent journaled records of an event
func (s *Server) handleGetJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{
				Code:    "JOURNAL_NOT_AVAILABLE",
				Message: "Record journal is not configured",
			},
		})
		return
	}

	name := c.Param("name")

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: ErrorDetail{
					Code:    "INVALID_LIMIT",
					Message: "limit must be a positive integer",
				},
			})
			return
		}
		limit = min(n, maxJournalLimit)
	}

	records, err := s.journal.Read(c.Request.Context(), name, limit)
	if err != nil {
		s.logger.Error("failed to read journal", zap.String("event", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "JOURNAL_ERROR",
				Message: "Failed to read journal",
				Details: err.Error(),
			},
		})
		return
	}

	for i := range records {
		records[i].Args = ports.EncodableArgs(records[i].Args)
	}

	s.writeJSON(c, http.StatusOK, gin.H{
		"event": name,
		"data":  records,
		"total": len(records),
	})
}

// writeJSON encodes body before writing the status line, so an encoding
// failure still yields a 500
func (s *Server) writeJSON(c *gin.Context, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("failed to encode response",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "ENCODING_ERROR",
				Message: "Failed to encode response",
			},
		})
		return
	}

	c.Data(status, "application/json; charset=utf-8", data)
}
