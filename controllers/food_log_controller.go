package controllers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodlog/middlewares"
	"foodlog/models"
	"foodlog/services"
)

type FoodLogController struct {
	ingestion *services.IngestionService
	loc       *time.Location
	now       func() time.Time
}

func NewFoodLogController(ing *services.IngestionService, loc *time.Location) *FoodLogController {
	return &FoodLogController{ingestion: ing, loc: loc, now: time.Now}
}

type createEntryRequest struct {
	Name        string       `json:"name"`
	Calories    *json.Number `json:"calories"`
	MealType    string       `json:"mealType"`
	QuickAction string       `json:"quickAction"`
}

func (r createEntryRequest) draft() (models.DraftSubmission, error) {
	d := models.DraftSubmission{Source: models.SourceManual}
	if r.QuickAction != "" {
		qa, ok := services.Expand(r.QuickAction)
		if !ok {
			return d, models.NewValidationError("quickAction", "unknown quick action")
		}
		d = qa
	}
	if r.Name != "" {
		d.Name = r.Name
	}
	if r.MealType != "" {
		d.MealType = r.MealType
	}
	if r.Calories != nil {
		n, ok := integralCalories(*r.Calories)
		if !ok {
			return d, models.NewValidationError("calories", "must be a positive integer")
		}
		cal := int(n)
		d.Calories = &cal
	}
	return d, nil
}

// integralCalories accepts whole numbers written as integers or as floats
// ("300", "300.0", "3e2"). Fractions and values outside int32 are refused.
func integralCalories(num json.Number) (int64, bool) {
	if n, err := num.Int64(); err == nil {
		return n, n >= math.MinInt32 && n <= math.MaxInt32
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int64(f), true
}

// POST /food-logs
func (fc *FoodLogController) Create(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	d, err := req.draft()
	if err == nil {
		var e models.FoodEntry
		e, err = fc.ingestion.Commit(d, middlewares.Store(c))
		if err == nil {
			c.JSON(http.StatusCreated, e)
			return
		}
	}
	if !writeValidationError(c, err) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GET /food-logs?date=YYYY-MM-DD
func (fc *FoodLogController) List(c *gin.Context) {
	day, ok := fc.day(c)
	if !ok {
		return
	}
	entries := services.EntriesOn(middlewares.Peek(c).Snapshot(), day, fc.loc)
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "entries": entries})
}

// GET /food-logs/summary?date=YYYY-MM-DD
func (fc *FoodLogController) Summary(c *gin.Context) {
	day, ok := fc.day(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, services.Summarize(middlewares.Peek(c).Snapshot(), day, fc.loc))
}

// DELETE /food-logs/:id
func (fc *FoodLogController) Delete(c *gin.Context) {
	e, err := fc.ingestion.Remove(c.Param("id"), middlewares.Peek(c))
	if errors.Is(err, services.ErrEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": e.ID})
}

// day reads ?date=, defaulting to today in the configured zone.
func (fc *FoodLogController) day(c *gin.Context) (time.Time, bool) {
	q := c.Query("date")
	if q == "" {
		return services.DayStart(fc.now(), fc.loc), true
	}
	d, err := services.ParseDay(q, fc.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}
