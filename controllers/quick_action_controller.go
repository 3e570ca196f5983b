package controllers

import (
	"net/http"

	"foodlog/services"

	"github.com/gin-gonic/gin"
)

// GET /quick-actions
func ListQuickActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": services.QuickActions()})
}

// POST /quick-actions/:action → pre-filled draft for the entry form
func ExpandQuickAction(c *gin.Context) {
	d, ok := services.Expand(c.Param("action"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown quick action"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": d})
}
