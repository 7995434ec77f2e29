package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.identity.ListAccounts(c.Request.Context(), callerIdentity(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gin.H, len(accounts))
	for i, a := range accounts {
		out[i] = gin.H{
			"id":       a.ID,
			"username": a.Username,
			"email":    a.Email,
			"role":     a.Role,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createPartnerAccount(c *gin.Context) {
	var req struct {
		PlatformName string `json:"platform_name"`
		ContactEmail string `json:"contact_email"`
		Username     string `json:"username"`
		Password     string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := s.identity.CreatePartnerAccount(c.Request.Context(), callerIdentity(c), req.PlatformName, req.ContactEmail, req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       account.ID,
		"username": account.Username,
		"role":     account.Role,
	})
}

func (s *Server) deleteAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	if err := s.identity.DeleteAccount(c.Request.Context(), callerIdentity(c), accountID); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) setRole(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.identity.SetRole(c.Request.Context(), callerIdentity(c), accountID, req.Role); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "role updated"})
}

func (s *Server) listAllBookings(c *gin.Context) {
	bookings, err := s.bookings.ListAll(c.Request.Context(), callerIdentity(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingsJSON(bookings))
}
