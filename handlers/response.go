package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/xuri/excelize/v2"
)

var badRequestErrors = []error{
	models.ErrInvalidStatus,
	models.ErrInvalidStatusTransition,
	models.ErrQuotationAlreadyLinked,
	pricing.ErrNoPallets,
	pricing.ErrInvalidPallet,
	pricing.ErrNegativeAmount,
	pricing.ErrUnknownVehicleType,
}

var conflictErrors = []error{
	models.ErrQuotationLocked,
	models.ErrRecordInUse,
	models.ErrOnboardingTokenUsed,
	models.ErrOutboxNotReplayable,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, models.ErrNotCompanyQuotation) {
		return http.StatusForbidden
	}
	if utils.IsValidationError(err) {
		return http.StatusBadRequest
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "fields": ve.Fields})
	case status == http.StatusInternalServerError:
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
	default:
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
	}
}

func respond(c *gin.Context, status int, body interface{}, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, body)
}

// pathId reads a positive integer path parameter. It writes the 400 itself.
func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return false
	}
	return true
}

// pageParams reads limit and after for cursor pagination.
func pageParams(c *gin.Context) (int, *string) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	var after *string
	if v := c.Query("after"); v != "" {
		after = &v
	}
	return limit, after
}

func writeXlsx(c *gin.Context, filename string, f *excelize.File, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	c.Header("Content-Type", models.XlsxContentType)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
