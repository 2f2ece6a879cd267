package server

import (
	"net/http"
	"strings"
	"time"

	billdomain "github.com/aquilabs/waterworks/internal/bill/domain"
	billingdomain "github.com/aquilabs/waterworks/internal/billing/domain"
	"github.com/gin-gonic/gin"
)

type createBillRequest struct {
	CustomerID      string `json:"customer_id"`
	BilledMonth     string `json:"billed_month"`
	PreviousReading int64  `json:"previous_reading"`
	CurrentReading  int64  `json:"current_reading"`
}

func (s *Server) CreateBill(c *gin.Context) {
	var req createBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billSvc.Create(c.Request.Context(), billdomain.CreateBillRequest{
		CustomerID:      strings.TrimSpace(req.CustomerID),
		BilledMonth:     strings.TrimSpace(req.BilledMonth),
		PreviousReading: req.PreviousReading,
		CurrentReading:  req.CurrentReading,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillByID(c *gin.Context) {
	resp, err := s.billSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerBills(c *gin.Context) {
	var query struct {
		AsOf string `form:"as_of"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var asOf time.Time
	if value := strings.TrimSpace(query.AsOf); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
			return
		}
		asOf = parsed.UTC()
	}

	resp, err := s.billSvc.ListOutstanding(c.Request.Context(), billdomain.ListOutstandingRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
		AsOf:       asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isBillValidationError(err error) bool {
	switch err {
	case billdomain.ErrInvalidCustomer,
		billdomain.ErrInvalidBilledMonth,
		billdomain.ErrInvalidID,
		billingdomain.ErrInvalidReading,
		billingdomain.ErrInvalidRate,
		billingdomain.ErrInvalidMonth,
		billingdomain.ErrInvalidDiscount:
		return true
	default:
		return false
	}
}
