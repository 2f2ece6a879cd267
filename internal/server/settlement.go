package server

import (
	"net/http"
	"strings"

	settlementdomain "github.com/aquilabs/waterworks/internal/settlement/domain"
	"github.com/gin-gonic/gin"
)

type createSettlementRequest struct {
	CustomerID    string   `json:"customer_id"`
	BillIDs       []string `json:"bill_ids"`
	TenderedCents int64    `json:"tendered_cents"`
	AllowPartial  *bool    `json:"allow_partial"`
}

func (s *Server) CreateSettlement(c *gin.Context) {
	var req createSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.Settle(c.Request.Context(), settlementdomain.SettleRequest{
		CustomerID:    strings.TrimSpace(req.CustomerID),
		BillIDs:       req.BillIDs,
		TenderedCents: req.TenderedCents,
		AllowPartial:  req.AllowPartial,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSettlementByID(c *gin.Context) {
	resp, err := s.settlementSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isSettlementValidationError(err error) bool {
	switch err {
	case settlementdomain.ErrInvalidCustomer,
		settlementdomain.ErrInvalidID,
		settlementdomain.ErrInvalidTender,
		settlementdomain.ErrNothingSelected:
		return true
	default:
		return false
	}
}
