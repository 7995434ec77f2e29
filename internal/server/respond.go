package server

import (
	"net/http"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError translates the failure taxonomy into HTTP statuses.
// Untyped errors are logged and surface as a generic 500.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidInput:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

const dateLayout = "2006-01-02"

func bookingJSON(b *model.Booking) gin.H {
	return gin.H{
		"id":             b.ID,
		"account_id":     b.AccountID,
		"partner_id":     b.PartnerID,
		"time_slot_id":   b.TimeSlotID,
		"order_platform": b.OrderPlatform,
		"order_id_text":  b.OrderIDText,
		"college_reg_no": b.CollegeRegNo,
		"name":           b.Name,
		"phone":          b.Phone,
		"type":           b.Type,
		"status":         b.Status,
		"booking_date":   b.BookingDate.Format(dateLayout),
		"created_at":     b.CreatedAt,
	}
}

func bookingsJSON(bookings []*model.Booking) []gin.H {
	out := make([]gin.H, len(bookings))
	for i, b := range bookings {
		out[i] = bookingJSON(b)
	}
	return out
}
