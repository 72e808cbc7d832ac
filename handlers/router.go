package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/middlewares"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the HTTP surface. extra runs after the readiness gate and
// before the actor and loader middlewares; the server passes CORS and the rate
// limiter here.
func NewRouter(logger *logrus.Logger, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationIdMiddleware())
	r.Use(middlewares.ReadinessMiddleware())
	r.Use(extra...)
	r.Use(middlewares.ActorMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.POST("/pubsub", pubSubPushHandler(logger))

	public := r.Group("/public")
	public.GET("/track/:token", trackShipment)
	public.GET("/onboarding/:token", getOnboarding)
	public.POST("/onboarding/:token", completeOnboarding)
	public.GET("/document-requirements", documentRequirements)

	portal := r.Group("/portal/companies/:companyId", middlewares.PortalCompanyMiddleware())
	portal.GET("/quotations", portalQuotations)
	portal.GET("/quotations/:id", portalQuotation)
	portal.POST("/quotations", portalRequestQuotation)
	portal.GET("/documents", portalDocuments)
	portal.POST("/documents", portalSubmitDocument)
	portal.GET("/stats", portalStats)

	api := r.Group("/api/v1")
	registerMasterData(api)
	registerQuotations(api)
	registerOperations(api)
	return r
}

func registerMasterData(api *gin.RouterGroup) {
	api.GET("/companies", listCompanies)
	api.POST("/companies", createCompany)
	api.GET("/companies/:id", getCompany)
	api.PUT("/companies/:id", updateCompany)
	api.DELETE("/companies/:id", deleteCompany)
	api.POST("/companies/:id/onboarding-token", issueOnboardingToken)

	api.GET("/destinations", listDestinations)
	api.POST("/destinations", createDestination)
	api.GET("/destinations/:id", getDestination)
	api.PUT("/destinations/:id", updateDestination)
	api.DELETE("/destinations/:id", deleteDestination)
	api.GET("/destinations/:id/freight-rates", listFreightRates)
	api.GET("/destinations/:id/rate-card", exportRateCard)
	api.POST("/destinations/:id/rate-card", importRateCard)

	api.POST("/freight-rates", createFreightRate)
	api.GET("/freight-rates/:id", getFreightRate)
	api.PUT("/freight-rates/:id", updateFreightRate)
	api.DELETE("/freight-rates/:id", deleteFreightRate)

	api.GET("/delivery-rates", listDeliveryRates)
	api.PUT("/delivery-rates", upsertDeliveryRate)
	api.DELETE("/delivery-rates/:id", deleteDeliveryRate)

	api.GET("/products", listProducts)
	api.POST("/products", createProduct)
	api.GET("/products/:id", getProduct)
	api.PUT("/products/:id", updateProduct)
	api.DELETE("/products/:id", deleteProduct)

	api.GET("/document-types", listDocumentTypes)
	api.POST("/document-types", createDocumentType)
	api.GET("/document-types/:id", getDocumentType)
	api.PUT("/document-types/:id", updateDocumentType)
	api.DELETE("/document-types/:id", deleteDocumentType)

	api.PUT("/settings", upsertSetting)
	api.GET("/settings/:category", listSettings)
	api.GET("/settings/:category/:key", getSetting)
	api.DELETE("/settings/:category/:key", deleteSetting)
}

func registerQuotations(api *gin.RouterGroup) {
	api.POST("/quotations/preview", previewQuotation)
	api.GET("/quotations", listQuotations)
	api.GET("/quotations/export", exportQuotationRegister)
	api.POST("/quotations", createQuotation)
	api.GET("/quotations/:id", getQuotation)
	api.PUT("/quotations/:id", updateQuotation)
	api.DELETE("/quotations/:id", deleteQuotation)
	api.PUT("/quotations/:id/status", updateQuotationStatus)
	api.POST("/quotations/:id/duplicate", duplicateQuotation)
	api.POST("/quotations/:id/share", shareQuotation)
	api.POST("/quotations/:id/booking-email", bookingEmail)
	api.GET("/quotations/:id/pallets", quotationPallets)
	api.GET("/quotations/:id/documents", quotationDocuments)
	api.GET("/quotations/:id/checklist", quotationChecklist)
	api.GET("/quotations/:id/debit-note", getDebitNote)
	api.PUT("/quotations/:id/debit-note", saveDebitNote)

	api.GET("/debit-notes", listDebitNotes)
	api.DELETE("/debit-notes/:id", deleteDebitNote)
}

func registerOperations(api *gin.RouterGroup) {
	api.GET("/documents", listDocuments)
	api.POST("/documents", submitDocument)
	api.GET("/documents/:id", getDocument)
	api.PUT("/documents/:id", updateDocument)
	api.PUT("/documents/:id/review", reviewDocument)
	api.DELETE("/documents/:id", deleteDocument)

	api.GET("/packing-lists", listPackingLists)
	api.POST("/packing-lists", createPackingList)
	api.GET("/packing-lists/:id", getPackingList)
	api.PUT("/packing-lists/:id", updatePackingList)
	api.PUT("/packing-lists/:id/status", updatePackingListStatus)
	api.DELETE("/packing-lists/:id", deletePackingList)
	api.GET("/packing-lists/:id/export", exportPackingList)

	api.GET("/opportunities", listOpportunities)
	api.GET("/opportunities/board", opportunityBoard)
	api.POST("/opportunities", createOpportunity)
	api.GET("/opportunities/:id", getOpportunity)
	api.PUT("/opportunities/:id", updateOpportunity)
	api.DELETE("/opportunities/:id", deleteOpportunity)
	api.PUT("/opportunities/:id/stage", moveOpportunityStage)
	api.POST("/opportunities/:id/quotation", linkOpportunityQuotation)
	api.GET("/opportunities/:id/tasks", listOpportunityTasks)
	api.POST("/opportunities/:id/tasks", createOpportunityTask)
	api.PUT("/opportunities/:id/tasks/:taskId/toggle", toggleOpportunityTask)
	api.DELETE("/opportunities/:id/tasks/:taskId", deleteOpportunityTask)

	api.GET("/dashboard", getDashboard)
	api.GET("/histories/:type/:id", listHistories)
	api.GET("/outbox-events", listOutboxEvents)
	api.POST("/outbox-events/:id/replay", replayOutboxEvent)
}
