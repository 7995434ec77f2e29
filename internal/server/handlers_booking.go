package server

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/Freeeeeet/delivery_slots/internal/service"
	"github.com/gin-gonic/gin"
)

func (s *Server) listPartners(c *gin.Context) {
	partners, err := s.identity.ListPartners(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gin.H, len(partners))
	for i, p := range partners {
		out[i] = gin.H{"id": p.ID, "platform_name": p.PlatformName}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listAvailability(c *gin.Context) {
	partnerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partner id"})
		return
	}

	date, err := service.ParseDate(c.Query("date"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	available, err := s.bookings.ListAvailability(c.Request.Context(), partnerID, date)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, available)
}

func (s *Server) listOwnBookings(c *gin.Context) {
	bookings, err := s.bookings.ListOwn(c.Request.Context(), callerIdentity(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingsJSON(bookings))
}

func (s *Server) createBooking(c *gin.Context) {
	var req struct {
		PartnerID    int64  `json:"partner_id" binding:"required"`
		TimeSlotID   int64  `json:"time_slot_id" binding:"required"`
		Date         string `json:"date"`
		OrderIDText  string `json:"order_id_text"`
		CollegeRegNo string `json:"college_reg_no"`
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Type         string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := service.ParseDate(req.Date)
	if err != nil {
		s.writeError(c, err)
		return
	}

	booking, err := s.bookings.Create(c.Request.Context(), callerIdentity(c), service.CreateBookingInput{
		PartnerID:    req.PartnerID,
		TimeSlotID:   req.TimeSlotID,
		Date:         date,
		OrderIDText:  req.OrderIDText,
		CollegeRegNo: req.CollegeRegNo,
		Name:         req.Name,
		Phone:        req.Phone,
		Type:         req.Type,
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindConflict:
			bookingsRejected.WithLabelValues("full").Inc()
		case apperr.KindInvalidInput:
			bookingsRejected.WithLabelValues("invalid").Inc()
		}
		s.writeError(c, err)
		return
	}

	bookingsCreated.Inc()
	c.JSON(http.StatusCreated, bookingJSON(booking))
}

func (s *Server) updateBookingStatus(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.bookings.UpdateStatus(c.Request.Context(), callerIdentity(c), bookingID, req.Status); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
