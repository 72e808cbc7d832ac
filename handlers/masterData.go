package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/models"
)

func listCompanies(c *gin.Context) {
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	companies, err := models.GetCompanies(c.Request.Context(), name)
	respond(c, http.StatusOK, companies, err)
}

func getCompany(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	company, err := models.GetCompany(c.Request.Context(), id)
	respond(c, http.StatusOK, company, err)
}

func createCompany(c *gin.Context) {
	var input models.NewCompany
	if !bindJSON(c, &input) {
		return
	}
	company, err := models.CreateCompany(c.Request.Context(), &input)
	respond(c, http.StatusCreated, company, err)
}

func updateCompany(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewCompany
	if !bindJSON(c, &input) {
		return
	}
	company, err := models.UpdateCompany(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, company, err)
}

func deleteCompany(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	company, err := models.DeleteCompany(c.Request.Context(), id)
	respond(c, http.StatusOK, company, err)
}

func issueOnboardingToken(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	company, err := models.IssueOnboardingToken(c.Request.Context(), id)
	respond(c, http.StatusOK, company, err)
}

func listDestinations(c *gin.Context) {
	destinations, err := models.GetDestinations(c.Request.Context())
	respond(c, http.StatusOK, destinations, err)
}

func getDestination(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	destination, err := models.GetDestination(c.Request.Context(), id)
	respond(c, http.StatusOK, destination, err)
}

func createDestination(c *gin.Context) {
	var input models.NewDestination
	if !bindJSON(c, &input) {
		return
	}
	destination, err := models.CreateDestination(c.Request.Context(), &input)
	respond(c, http.StatusCreated, destination, err)
}

func updateDestination(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewDestination
	if !bindJSON(c, &input) {
		return
	}
	destination, err := models.UpdateDestination(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, destination, err)
}

func deleteDestination(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	destination, err := models.DeleteDestination(c.Request.Context(), id)
	respond(c, http.StatusOK, destination, err)
}

func exportRateCard(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	f, err := models.ExportRateCard(c.Request.Context(), id)
	writeXlsx(c, "rate-card.xlsx", f, err)
}

// importRateCard reads a rate card workbook from the "file" form field and
// creates one freight rate per row.
func importRateCard(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := models.GetDestination(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	inputs, err := models.ReadRateCardXlsx(file, id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created := make([]*models.FreightRate, 0, len(inputs))
	for i := range inputs {
		rate, err := models.CreateFreightRate(ctx, &inputs[i])
		if err != nil {
			respondError(c, err)
			return
		}
		created = append(created, rate)
	}
	c.JSON(http.StatusCreated, created)
}

func listFreightRates(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	rates, err := models.GetFreightRates(c.Request.Context(), id)
	respond(c, http.StatusOK, rates, err)
}

func getFreightRate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	rate, err := models.GetFreightRate(c.Request.Context(), id)
	respond(c, http.StatusOK, rate, err)
}

func createFreightRate(c *gin.Context) {
	var input models.NewFreightRate
	if !bindJSON(c, &input) {
		return
	}
	rate, err := models.CreateFreightRate(c.Request.Context(), &input)
	respond(c, http.StatusCreated, rate, err)
}

func updateFreightRate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewFreightRate
	if !bindJSON(c, &input) {
		return
	}
	rate, err := models.UpdateFreightRate(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, rate, err)
}

func deleteFreightRate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	rate, err := models.DeleteFreightRate(c.Request.Context(), id)
	respond(c, http.StatusOK, rate, err)
}

func listDeliveryRates(c *gin.Context) {
	rates, err := models.GetDeliveryRates(c.Request.Context())
	respond(c, http.StatusOK, rates, err)
}

func upsertDeliveryRate(c *gin.Context) {
	var input models.NewDeliveryRate
	if !bindJSON(c, &input) {
		return
	}
	rate, err := models.UpsertDeliveryRate(c.Request.Context(), &input)
	respond(c, http.StatusOK, rate, err)
}

func deleteDeliveryRate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	rate, err := models.DeleteDeliveryRate(c.Request.Context(), id)
	respond(c, http.StatusOK, rate, err)
}

func listProducts(c *gin.Context) {
	var search *string
	if v := c.Query("search"); v != "" {
		search = &v
	}
	products, err := models.GetProducts(c.Request.Context(), search)
	respond(c, http.StatusOK, products, err)
}

func getProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	respond(c, http.StatusOK, product, err)
}

func createProduct(c *gin.Context) {
	var input models.NewProduct
	if !bindJSON(c, &input) {
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	respond(c, http.StatusCreated, product, err)
}

func updateProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewProduct
	if !bindJSON(c, &input) {
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, product, err)
}

func deleteProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	product, err := models.DeleteProduct(c.Request.Context(), id)
	respond(c, http.StatusOK, product, err)
}

func listDocumentTypes(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		types []*models.DocumentType
		err   error
	)
	if c.Query("required") == "true" {
		types, err = models.GetRequiredDocumentTypes(ctx)
	} else {
		types, err = models.GetDocumentTypes(ctx)
	}
	respond(c, http.StatusOK, types, err)
}

func getDocumentType(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	docType, err := models.GetDocumentType(c.Request.Context(), id)
	respond(c, http.StatusOK, docType, err)
}

func createDocumentType(c *gin.Context) {
	var input models.NewDocumentType
	if !bindJSON(c, &input) {
		return
	}
	docType, err := models.CreateDocumentType(c.Request.Context(), &input)
	respond(c, http.StatusCreated, docType, err)
}

func updateDocumentType(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewDocumentType
	if !bindJSON(c, &input) {
		return
	}
	docType, err := models.UpdateDocumentType(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, docType, err)
}

func deleteDocumentType(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	docType, err := models.DeleteDocumentType(c.Request.Context(), id)
	respond(c, http.StatusOK, docType, err)
}

func listSettings(c *gin.Context) {
	settings, err := models.GetSettings(c.Request.Context(), c.Param("category"))
	respond(c, http.StatusOK, settings, err)
}

func getSetting(c *gin.Context) {
	setting, err := models.GetSetting(c.Request.Context(), c.Param("category"), c.Param("key"))
	respond(c, http.StatusOK, setting, err)
}

func upsertSetting(c *gin.Context) {
	var input models.NewSetting
	if !bindJSON(c, &input) {
		return
	}
	setting, err := models.UpsertSetting(c.Request.Context(), &input)
	respond(c, http.StatusOK, setting, err)
}

func deleteSetting(c *gin.Context) {
	setting, err := models.DeleteSetting(c.Request.Context(), c.Param("category"), c.Param("key"))
	respond(c, http.StatusOK, setting, err)
}
