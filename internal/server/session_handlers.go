package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
	"github.com/mikeveit1/MacroTrack-sub000/internal/tracker"
)

const (
	opSelectDate     = "server.select_date"
	opGetSession     = "server.get_session"
	opAddFood        = "server.add_food"
	opRemoveFood     = "server.remove_food"
	opUpdateServings = "server.update_servings"
)

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type macrosPayload struct {
	Calories *float64 `json:"calories" binding:"required,gte=0"`
	Protein  *float64 `json:"protein" binding:"required,gte=0"`
	Carbs    *float64 `json:"carbs" binding:"required,gte=0"`
	Fat      *float64 `json:"fat" binding:"required,gte=0"`
}

type addFoodRequest struct {
	Name               string         `json:"name" binding:"required"`
	Macronutrients     *macrosPayload `json:"macronutrients" binding:"required"`
	ServingDescription string         `json:"serving_description"`
	Servings           float64        `json:"servings"`
}

// updateServingsRequest accepts servings as typed text or as a JSON number.
type updateServingsRequest struct {
	Servings json.RawMessage `json:"servings"`
}

func (request updateServingsRequest) servingsText() string {
	var text string
	if err := json.Unmarshal(request.Servings, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(request.Servings))
}

type macrosResponse struct {
	Calories int64   `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type foodResponse struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	ServingDescription string         `json:"serving_description"`
	Servings           float64        `json:"servings"`
	Macronutrients     macrosResponse `json:"macronutrients"`
	Baseline           macrosResponse `json:"baseline"`
	AddedAt            *time.Time     `json:"added_at,omitempty"`
}

type mealResponse struct {
	Slot   string         `json:"slot"`
	Foods  []foodResponse `json:"foods"`
	Totals macrosResponse `json:"totals"`
}

type sessionResponse struct {
	Date     string          `json:"date"`
	State    string          `json:"state"`
	Error    string          `json:"error,omitempty"`
	Meals    []mealResponse  `json:"meals"`
	Totals   macrosResponse  `json:"totals"`
	Water    float64         `json:"water"`
	Progress *diary.Progress `json:"progress,omitempty"`
}

func (h *httpHandler) handleSelectDate(c *gin.Context) {
	var request selectDateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	session, ok := h.currentSession(c)
	if !ok {
		return
	}
	if _, err := session.SelectDate(c.Request.Context(), request.Date); err != nil {
		h.respondError(c, opSelectDate, err)
		return
	}
	c.JSON(http.StatusAccepted, buildSessionResponse(session.Snapshot(), nil))
}

func (h *httpHandler) handleGetSession(c *gin.Context) {
	session, ok := h.currentSession(c)
	if !ok {
		return
	}
	snapshot := session.Snapshot()
	var goals *diary.Goals
	if snapshot.State == tracker.StatePopulated {
		loaded, err := h.gateway.LoadGoals(c.Request.Context(), session.UserID())
		if err != nil {
			h.respondError(c, opGetSession, err)
			return
		}
		goals = &loaded
	}
	c.JSON(http.StatusOK, buildSessionResponse(snapshot, goals))
}

func (h *httpHandler) handleAddFood(c *gin.Context) {
	var request addFoodRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	slot, err := diary.ParseMealSlot(c.Param("slot"))
	if err != nil {
		h.respondError(c, opAddFood, err)
		return
	}
	session, ok := h.currentSession(c)
	if !ok {
		return
	}
	input := tracker.NewFood{
		Name: request.Name,
		Macros: macros.Info{
			Calories: *request.Macronutrients.Calories,
			Protein:  *request.Macronutrients.Protein,
			Carbs:    *request.Macronutrients.Carbs,
			Fat:      *request.Macronutrients.Fat,
		},
		ServingDescription: request.ServingDescription,
		Servings:           request.Servings,
	}
	food, err := session.AddFood(c.Request.Context(), slot, input)
	if err != nil {
		h.respondError(c, opAddFood, err)
		return
	}
	c.JSON(http.StatusCreated, buildFoodResponse(food, input.Macros))
}

func (h *httpHandler) handleRemoveFood(c *gin.Context) {
	slot, err := diary.ParseMealSlot(c.Param("slot"))
	if err != nil {
		h.respondError(c, opRemoveFood, err)
		return
	}
	session, ok := h.currentSession(c)
	if !ok {
		return
	}
	if err := session.RemoveFood(c.Request.Context(), slot, c.Param("food_id")); err != nil {
		h.respondError(c, opRemoveFood, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleUpdateServings(c *gin.Context) {
	var request updateServingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}
	slot, err := diary.ParseMealSlot(c.Param("slot"))
	if err != nil {
		h.respondError(c, opUpdateServings, err)
		return
	}
	session, ok := h.currentSession(c)
	if !ok {
		return
	}
	food, err := session.UpdateServings(c.Request.Context(), slot, c.Param("food_id"), request.servingsText())
	if err != nil {
		h.respondError(c, opUpdateServings, err)
		return
	}
	baseline, found := session.Snapshot().Log.Baseline(food.ID)
	if !found {
		baseline = food.Macros
	}
	c.JSON(http.StatusOK, buildFoodResponse(food, baseline))
}

func buildSessionResponse(snapshot tracker.Snapshot, goals *diary.Goals) sessionResponse {
	response := sessionResponse{
		Date:  snapshot.DateKey,
		State: snapshot.State.String(),
		Meals: make([]mealResponse, 0, len(diary.MealSlots())),
	}
	if snapshot.LastError != nil {
		response.Error = "The day could not be loaded. Please try again."
	}
	log := snapshot.Log
	for _, slot := range diary.MealSlots() {
		foods := log.SortedFoods(slot)
		meal := mealResponse{
			Slot:   slot.String(),
			Foods:  make([]foodResponse, 0, len(foods)),
			Totals: buildMacrosResponse(diary.TotalsForMeal(log, slot)),
		}
		for _, food := range foods {
			baseline, ok := log.Baseline(food.ID)
			if !ok {
				baseline = food.Macros
			}
			meal.Foods = append(meal.Foods, buildFoodResponse(food, baseline))
		}
		response.Meals = append(response.Meals, meal)
	}
	totals := diary.TotalsForDay(log)
	response.Totals = buildMacrosResponse(totals)
	response.Water = diary.WaterServings(log)
	if goals != nil {
		progress := diary.ProgressFor(totals, response.Water, *goals)
		response.Progress = &progress
	}
	return response
}

func buildFoodResponse(food diary.LoggedFood, baseline macros.Info) foodResponse {
	response := foodResponse{
		ID:                 food.ID,
		Name:               food.Name,
		ServingDescription: food.ServingDescription,
		Servings:           food.ServingsOrDefault(),
		Macronutrients:     buildMacrosResponse(food.Macros),
		Baseline:           buildMacrosResponse(baseline),
	}
	if !food.AddedAt.IsZero() {
		addedAt := food.AddedAt.UTC()
		response.AddedAt = &addedAt
	}
	return response
}

func buildMacrosResponse(info macros.Info) macrosResponse {
	return macrosResponse{
		Calories: info.WholeCalories(),
		Protein:  macros.RoundHundredths(info.Protein),
		Carbs:    macros.RoundHundredths(info.Carbs),
		Fat:      macros.RoundHundredths(info.Fat),
	}
}
