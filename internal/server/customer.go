package server

import (
	"net/http"
	"strings"

	customerdomain "github.com/aquilabs/waterworks/internal/customer/domain"
	"github.com/aquilabs/waterworks/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createCustomerRequest struct {
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	RateClassCode   string  `json:"rate_class_code"`
	DiscountPercent float64 `json:"discount_percent"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:            strings.TrimSpace(req.Name),
		Address:         strings.TrimSpace(req.Address),
		RateClassCode:   strings.TrimSpace(req.RateClassCode),
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "customer.create", "customer", &targetID, map[string]any{
			"name":            resp.Name,
			"rate_class_code": resp.RateClassCode,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name          string `form:"name"`
		RateClassCode string `form:"rate_class_code"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:     query.PageToken,
		PageSize:      int32(query.PageSize),
		Name:          strings.TrimSpace(query.Name),
		RateClassCode: strings.TrimSpace(query.RateClassCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidRateClass,
		customerdomain.ErrInvalidDiscount,
		customerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
