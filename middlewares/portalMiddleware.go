package middlewares

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
)

// PortalCompanyMiddleware scopes /portal/companies/:companyId routes to one existing company.
func PortalCompanyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, err := strconv.Atoi(c.Param("companyId"))
		if err != nil || companyId <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
			return
		}
		if _, err := models.GetCompany(c.Request.Context(), companyId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "company not found"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Request = c.Request.WithContext(utils.SetPortalCompanyIdInContext(c.Request.Context(), companyId))
		c.Next()
	}
}
