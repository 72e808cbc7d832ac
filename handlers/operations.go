package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hiflogistics/freight_backend/models"
)

func listDocuments(c *gin.Context) {
	var filter models.DocumentFilter
	if !bindQuery(c, &filter) {
		return
	}
	limit, after := pageParams(c)
	conn, err := models.PaginateDocumentSubmissions(c.Request.Context(), filter, limit, after)
	respond(c, http.StatusOK, conn, err)
}

func getDocument(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	doc, err := models.GetDocumentSubmission(c.Request.Context(), id)
	respond(c, http.StatusOK, doc, err)
}

func submitDocument(c *gin.Context) {
	var input models.NewDocumentSubmission
	if !bindJSON(c, &input) {
		return
	}
	doc, err := models.SubmitDocument(c.Request.Context(), &input)
	respond(c, http.StatusCreated, doc, err)
}

func updateDocument(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewDocumentSubmission
	if !bindJSON(c, &input) {
		return
	}
	doc, err := models.UpdateDocumentSubmission(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, doc, err)
}

func reviewDocument(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.DocumentReview
	if !bindJSON(c, &input) {
		return
	}
	doc, err := models.ReviewDocument(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, doc, err)
}

func deleteDocument(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	doc, err := models.DeleteDocumentSubmission(c.Request.Context(), id)
	respond(c, http.StatusOK, doc, err)
}

func listPackingLists(c *gin.Context) {
	var filter models.PackingListFilter
	if !bindQuery(c, &filter) {
		return
	}
	limit, after := pageParams(c)
	conn, err := models.PaginatePackingLists(c.Request.Context(), filter, limit, after)
	respond(c, http.StatusOK, conn, err)
}

func getPackingList(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	pl, err := models.GetPackingList(c.Request.Context(), id)
	respond(c, http.StatusOK, pl, err)
}

func createPackingList(c *gin.Context) {
	var input models.NewPackingList
	if !bindJSON(c, &input) {
		return
	}
	pl, err := models.CreatePackingList(c.Request.Context(), &input)
	respond(c, http.StatusCreated, pl, err)
}

func updatePackingList(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPackingList
	if !bindJSON(c, &input) {
		return
	}
	pl, err := models.UpdatePackingList(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, pl, err)
}

func updatePackingListStatus(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input statusInput
	if !bindJSON(c, &input) {
		return
	}
	pl, err := models.UpdatePackingListStatus(c.Request.Context(), id, models.PackingListStatus(input.Status))
	respond(c, http.StatusOK, pl, err)
}

func deletePackingList(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	pl, err := models.DeletePackingList(c.Request.Context(), id)
	respond(c, http.StatusOK, pl, err)
}

func exportPackingList(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	f, err := models.ExportPackingList(c.Request.Context(), id)
	writeXlsx(c, "packing-list-"+strconv.Itoa(id)+".xlsx", f, err)
}

func listOpportunities(c *gin.Context) {
	var filter models.OpportunityFilter
	if !bindQuery(c, &filter) {
		return
	}
	opps, err := models.GetOpportunities(c.Request.Context(), filter)
	respond(c, http.StatusOK, opps, err)
}

func opportunityBoard(c *gin.Context) {
	var filter models.OpportunityFilter
	if !bindQuery(c, &filter) {
		return
	}
	board, err := models.GetOpportunityBoard(c.Request.Context(), filter)
	respond(c, http.StatusOK, board, err)
}

func getOpportunity(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	opp, err := models.GetOpportunity(c.Request.Context(), id)
	respond(c, http.StatusOK, opp, err)
}

func createOpportunity(c *gin.Context) {
	var input models.NewOpportunity
	if !bindJSON(c, &input) {
		return
	}
	opp, err := models.CreateOpportunity(c.Request.Context(), &input)
	respond(c, http.StatusCreated, opp, err)
}

func updateOpportunity(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewOpportunity
	if !bindJSON(c, &input) {
		return
	}
	opp, err := models.UpdateOpportunity(c.Request.Context(), id, &input)
	respond(c, http.StatusOK, opp, err)
}

func deleteOpportunity(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	opp, err := models.DeleteOpportunity(c.Request.Context(), id)
	respond(c, http.StatusOK, opp, err)
}

func moveOpportunityStage(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input struct {
		Stage string `json:"stage" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	opp, err := models.MoveOpportunityStage(c.Request.Context(), id, models.OpportunityStage(input.Stage))
	respond(c, http.StatusOK, opp, err)
}

func linkOpportunityQuotation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input struct {
		QuotationId int `json:"quotation_id" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	opp, err := models.LinkQuotation(c.Request.Context(), id, input.QuotationId)
	respond(c, http.StatusOK, opp, err)
}

func listOpportunityTasks(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	tasks, err := models.GetOpportunityTasks(c.Request.Context(), id)
	respond(c, http.StatusOK, tasks, err)
}

func createOpportunityTask(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewOpportunityTask
	if !bindJSON(c, &input) {
		return
	}
	task, err := models.CreateOpportunityTask(c.Request.Context(), id, &input)
	respond(c, http.StatusCreated, task, err)
}

func toggleOpportunityTask(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	taskId, ok := pathId(c, "taskId")
	if !ok {
		return
	}
	task, err := models.ToggleOpportunityTask(c.Request.Context(), id, taskId)
	respond(c, http.StatusOK, task, err)
}

func deleteOpportunityTask(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	taskId, ok := pathId(c, "taskId")
	if !ok {
		return
	}
	task, err := models.DeleteOpportunityTask(c.Request.Context(), id, taskId)
	respond(c, http.StatusOK, task, err)
}

func getDashboard(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "6"))
	if err != nil || months <= 0 || months > 24 {
		months = 6
	}
	dashboard, err := models.GetDashboard(c.Request.Context(), months)
	respond(c, http.StatusOK, dashboard, err)
}

func listHistories(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	histories, err := models.GetHistories(c.Request.Context(), c.Param("type"), id)
	respond(c, http.StatusOK, histories, err)
}
