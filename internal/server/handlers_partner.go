package server

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/gin-gonic/gin"
)

func (s *Server) listPartnerSlots(c *gin.Context) {
	slots, err := s.catalog.ListSlots(c.Request.Context(), callerIdentity(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if slots == nil {
		slots = make([]*model.TimeSlot, 0)
	}
	c.JSON(http.StatusOK, slots)
}

func (s *Server) createSlot(c *gin.Context) {
	var req struct {
		DayOfWeek   string `json:"day_of_week"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		MaxCapacity *int   `json:"max_capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxCapacity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all slot fields are required"})
		return
	}

	slot, err := s.catalog.CreateSlot(c.Request.Context(), callerIdentity(c), req.DayOfWeek, req.StartTime, req.EndTime, *req.MaxCapacity)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

func (s *Server) deleteSlot(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot id"})
		return
	}

	if err := s.catalog.DeleteSlot(c.Request.Context(), callerIdentity(c), slotID); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) listPartnerBookings(c *gin.Context) {
	bookings, err := s.bookings.ListForPartner(c.Request.Context(), callerIdentity(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingsJSON(bookings))
}
