package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodlog/models"
	"foodlog/services"
)

func writeValidationError(c *gin.Context, err error) bool {
	var ve models.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field, "reason": ve.Reason})
	return true
}

// writeAnalysisError renders the {success:false, error:{kind, message}} shape.
func writeAnalysisError(c *gin.Context, err error) {
	var ae *models.AnalysisError
	switch {
	case errors.As(err, &ae) && ae.Kind == models.InvalidInput:
		c.JSON(http.StatusBadRequest, analysisFailure(ae.Kind, ae.Message))
	case errors.As(err, &ae):
		c.JSON(http.StatusBadGateway, analysisFailure(ae.Kind, "Analysis failed"))
	case errors.Is(err, services.ErrAnalysisInFlight):
		c.JSON(http.StatusConflict, analysisFailure("busy", err.Error()))
	case errors.Is(err, services.ErrAnalysisAbandoned):
		// client is gone; status is for the access log only
		c.AbortWithStatus(499)
	default:
		c.JSON(http.StatusInternalServerError, analysisFailure(models.ServiceFailure, "Analysis failed"))
	}
}

func analysisFailure(kind models.AnalysisErrorKind, msg string) gin.H {
	return gin.H{"success": false, "error": gin.H{"kind": kind, "message": msg}}
}
