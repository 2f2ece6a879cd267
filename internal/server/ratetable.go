package server

import (
	"net/http"
	"strings"

	ratetabledomain "github.com/aquilabs/waterworks/internal/ratetable/domain"
	"github.com/gin-gonic/gin"
)

type createRateClassRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Tier1Cents  int64  `json:"tier1_cents"`
	Tier2Cents  int64  `json:"tier2_cents"`
}

func (s *Server) CreateRateClass(c *gin.Context) {
	var req createRateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rateTableSvc.Create(c.Request.Context(), ratetabledomain.CreateRateClassRequest{
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Tier1Cents:  req.Tier1Cents,
		Tier2Cents:  req.Tier2Cents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "rate_class.create", "rate_class", &targetID, map[string]any{
			"code":        resp.Code,
			"tier1_cents": resp.Tier1Cents,
			"tier2_cents": resp.Tier2Cents,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateRateClassRequest struct {
	Description *string `json:"description"`
	Tier1Cents  *int64  `json:"tier1_cents"`
	Tier2Cents  *int64  `json:"tier2_cents"`
}

func (s *Server) UpdateRateClass(c *gin.Context) {
	var req updateRateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rateTableSvc.Update(c.Request.Context(), ratetabledomain.UpdateRateClassRequest{
		Code:        strings.TrimSpace(c.Param("code")),
		Description: req.Description,
		Tier1Cents:  req.Tier1Cents,
		Tier2Cents:  req.Tier2Cents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "rate_class.update", "rate_class", &targetID, map[string]any{
			"code":        resp.Code,
			"tier1_cents": resp.Tier1Cents,
			"tier2_cents": resp.Tier2Cents,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRateClasses(c *gin.Context) {
	resp, err := s.rateTableSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isRateClassValidationError(err error) bool {
	switch err {
	case ratetabledomain.ErrInvalidCode,
		ratetabledomain.ErrInvalidTierRate:
		return true
	default:
		return false
	}
}
