package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"foodlog/middlewares"
	"foodlog/models"
	"foodlog/services"
	"foodlog/utils"
)

type ImageAnalysisController struct {
	snap     *services.SnapService
	maxBytes int64
}

func NewImageAnalysisController(snap *services.SnapService, maxBytes int64) *ImageAnalysisController {
	return &ImageAnalysisController{snap: snap, maxBytes: maxBytes}
}

// POST /image-analysis  multipart "image", or JSON { "image_base64": "data:…" }
func (ic *ImageAnalysisController) Analyze(c *gin.Context) {
	img, err := ic.readImage(c)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}
	res, err := ic.snap.Analyze(c.Request.Context(), middlewares.SessionID(c), img)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

type candidateRejection struct {
	Candidate models.Candidate `json:"candidate"`
	Field     string           `json:"field,omitempty"`
	Reason    string           `json:"reason"`
}

// POST /food-logs/snap  multipart "image" + optional "mealType" (form or query)
func (ic *ImageAnalysisController) Snap(c *gin.Context) {
	var choice models.MealType
	raw := c.PostForm("mealType")
	if raw == "" {
		raw = c.Query("mealType")
	}
	if raw != "" {
		mt, err := models.ParseMealType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "mealType"})
			return
		}
		choice = mt
	}
	img, err := ic.readImage(c)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	out, err := ic.snap.SnapAndLog(c.Request.Context(), middlewares.Store(c), img, choice)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	committed := make([]models.FoodEntry, 0, len(out.Outcomes))
	rejected := make([]candidateRejection, 0)
	for _, o := range out.Outcomes {
		if o.Err == nil {
			committed = append(committed, *o.Entry)
			continue
		}
		rej := candidateRejection{Candidate: o.Candidate, Reason: o.Err.Error()}
		var ve models.ValidationError
		if errors.As(o.Err, &ve) {
			rej.Field, rej.Reason = ve.Field, ve.Reason
		}
		rejected = append(rejected, rej)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"recognized": out.Analysis.Recognized(),
		"provider":   out.Analysis.Provider,
		"photoKey":   out.Analysis.PhotoKey,
		"committed":  committed,
		"rejected":   rejected,
	})
}

// readImage pulls the single image out of the request. A request without
// one is InvalidInput before the analyzer is involved.
func (ic *ImageAnalysisController) readImage(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req struct {
			ImageBase64 string `json:"image_base64"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.ImageBase64 == "" {
			return nil, models.NewInvalidInput("No image uploaded")
		}
		raw, _, err := utils.DecodeDataURI(req.ImageBase64)
		if err != nil {
			return nil, models.NewInvalidInput(err.Error())
		}
		return raw, nil
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return nil, models.NewInvalidInput("No image uploaded")
	}
	if ic.maxBytes > 0 && fh.Size > ic.maxBytes {
		return nil, models.NewInvalidInput(fmt.Sprintf("image exceeds %d bytes", ic.maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInvalidInput("File path missing")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInvalidInput("failed to read uploaded image")
	}
	return data, nil
}
