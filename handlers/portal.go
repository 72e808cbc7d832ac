package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
)

// portalCompany reads the company id set by PortalCompanyMiddleware.
func portalCompany(c *gin.Context) (int, bool) {
	companyId, ok := utils.GetPortalCompanyIdFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
	}
	return companyId, ok
}

func portalQuotations(c *gin.Context) {
	companyId, ok := portalCompany(c)
	if !ok {
		return
	}
	quotations, err := models.GetPortalQuotations(c.Request.Context(), companyId)
	respond(c, http.StatusOK, quotations, err)
}

func portalQuotation(c *gin.Context) {
	companyId, ok := portalCompany(c)
	if !ok {
		return
	}
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.GetPortalQuotation(c.Request.Context(), companyId, id)
	respond(c, http.StatusOK, quotation, err)
}

func portalRequestQuotation(c *gin.Context) {
	companyId, ok := portalCompany(c)
	if !ok {
		return
	}
	var input models.NewQuotation
	if !bindJSON(c, &input) {
		return
	}
	quotation, err := models.RequestQuotation(c.Request.Context(), companyId, &input)
	respond(c, http.StatusCreated, quotation, err)
}

func portalDocuments(c *gin.Context) {
	companyId, ok := portalCompany(c)
	if !ok {
		return
	}
	docs, err := models.GetPortalDocuments(c.Request.Context(), companyId)
	respond(c, http.StatusOK, docs, err)
}

func portalSubmitDocument(c *gin.Context) {
	companyId, ok := portalCompany(c)
	if !ok {
		return
	}
	var input models.NewDocumentSubmission
	if !bindJSON(c, &input) {
		return
	}
	doc, err := models.SubmitPortalDocument(c.Request.Context(), companyId, &input)
	respond(c, http.StatusCreated, doc, err)
}

func portalStats(c *gin.Context) {
	companyId, ok := portalCompany(c)
	if !ok {
		return
	}
	stats, err := models.GetPortalStats(c.Request.Context(), companyId)
	respond(c, http.StatusOK, stats, err)
}

func trackShipment(c *gin.Context) {
	view, err := models.GetTrackingView(c.Request.Context(), c.Param("token"))
	respond(c, http.StatusOK, view, err)
}

func getOnboarding(c *gin.Context) {
	company, err := models.GetCompanyByOnboardingToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":         company.Name,
		"onboarded_at": company.OnboardedAt,
	})
}

func completeOnboarding(c *gin.Context) {
	var input models.CompanyOnboarding
	if !bindJSON(c, &input) {
		return
	}
	company, err := models.CompleteOnboarding(c.Request.Context(), c.Param("token"), &input)
	respond(c, http.StatusOK, company, err)
}

func documentRequirements(c *gin.Context) {
	types, err := models.GetRequiredDocumentTypes(c.Request.Context())
	respond(c, http.StatusOK, types, err)
}
