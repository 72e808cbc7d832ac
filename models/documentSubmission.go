package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
	"gorm.io/gorm"
)

type DocumentSubmission struct {
	ID             int            `gorm:"primary_key" json:"id"`
	QuotationId    int            `gorm:"index;not null" json:"quotation_id"`
	CompanyName    string         `gorm:"size:255" json:"company_name"`
	DocumentType   string         `gorm:"size:255;not null" json:"document_type"`
	DocumentTypeId *int           `gorm:"index" json:"document_type_id"`
	Category       string         `gorm:"size:100" json:"category"`
	FileName       string         `gorm:"size:255;not null" json:"file_name"`
	FileUrl        string         `gorm:"size:1000" json:"file_url"`
	FileSize       int64          `json:"file_size"`
	MimeType       string         `gorm:"size:100" json:"mime_type"`
	Notes          string         `gorm:"type:text" json:"notes"`
	Status         DocumentStatus `gorm:"size:20;not null;index" json:"status"`
	SubmittedAt    time.Time      `gorm:"not null" json:"submitted_at"`
	ReviewedAt     *time.Time     `json:"reviewed_at"`
	ReviewedBy     string         `gorm:"size:100" json:"reviewed_by"`
	ReviewNote     string         `gorm:"type:text" json:"review_note"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewDocumentSubmission describes an already stored file; uploading is the client's job.
type NewDocumentSubmission struct {
	QuotationId    int    `json:"quotation_id" validate:"required"`
	DocumentType   string `json:"document_type" validate:"max=255"`
	DocumentTypeId *int   `json:"document_type_id"`
	Category       string `json:"category" validate:"max=100"`
	FileName       string `json:"file_name" validate:"required,max=255"`
	FileUrl        string `json:"file_url" validate:"required,max=1000"`
	FileSize       int64  `json:"file_size" validate:"gte=0"`
	MimeType       string `json:"mime_type" validate:"max=100"`
	Notes          string `json:"notes"`
}

type DocumentReview struct {
	Status     DocumentStatus `json:"status"`
	ReviewNote string         `json:"review_note"`
}

func (input *NewDocumentSubmission) validate(ctx context.Context) (*Quotation, error) {
	input.DocumentType = strings.TrimSpace(input.DocumentType)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	quotation, err := utils.FetchModel[Quotation](ctx, input.QuotationId)
	if err != nil {
		return nil, utils.NewValidationError("quotation_id", "quotation not found")
	}
	if input.DocumentTypeId != nil && *input.DocumentTypeId > 0 {
		docType, err := GetDocumentType(ctx, *input.DocumentTypeId)
		if err != nil {
			return nil, utils.NewValidationError("document_type_id", "document type not found")
		}
		if input.DocumentType == "" {
			input.DocumentType = docType.Name
		}
		if input.Category == "" {
			input.Category = docType.Category
		}
	} else {
		input.DocumentTypeId = nil
	}
	if input.DocumentType == "" {
		return nil, utils.NewValidationError("document_type", "document type is required")
	}
	return quotation, nil
}

// SubmitDocument records a submitted document. A draft, sent or accepted quotation
// moves to docs_uploaded in the same transaction.
func SubmitDocument(ctx context.Context, input *NewDocumentSubmission) (*DocumentSubmission, error) {
	quotation, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	companyName := quotation.CustomerName
	if company, err := GetCompany(ctx, quotation.CompanyId); err == nil {
		companyName = company.Name
	}

	doc := DocumentSubmission{
		QuotationId:    input.QuotationId,
		CompanyName:    companyName,
		DocumentType:   input.DocumentType,
		DocumentTypeId: input.DocumentTypeId,
		Category:       input.Category,
		FileName:       input.FileName,
		FileUrl:        input.FileUrl,
		FileSize:       input.FileSize,
		MimeType:       input.MimeType,
		Notes:          input.Notes,
		Status:         DocumentStatusSubmitted,
		SubmittedAt:    time.Now().UTC(),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		if quotation.Status.AcceptsDocuments() {
			if err := changeQuotationStatus(tx, quotation, QuotationStatusDocsUploaded); err != nil {
				return err
			}
		}
		return recordEvent(tx, EventReferenceDocument, doc.ID, EventActionCreate, &doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func UpdateDocumentSubmission(ctx context.Context, id int, input *NewDocumentSubmission) (*DocumentSubmission, error) {
	oldDoc, err := utils.FetchModel[DocumentSubmission](ctx, id)
	if err != nil {
		return nil, err
	}
	input.QuotationId = oldDoc.QuotationId
	if _, err := input.validate(ctx); err != nil {
		return nil, err
	}
	doc := *oldDoc
	doc.DocumentType = input.DocumentType
	doc.DocumentTypeId = input.DocumentTypeId
	doc.Category = input.Category
	doc.FileName = input.FileName
	doc.FileUrl = input.FileUrl
	doc.FileSize = input.FileSize
	doc.MimeType = input.MimeType
	doc.Notes = input.Notes

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceDocument, id, EventActionUpdate, &doc, oldDoc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReviewDocument sets a review outcome with the reviewer taken from the context.
func ReviewDocument(ctx context.Context, id int, input *DocumentReview) (*DocumentSubmission, error) {
	if !input.Status.IsReviewOutcome() {
		return nil, utils.NewValidationError("status", "status must be pending, approved or rejected")
	}
	oldDoc, err := utils.FetchModel[DocumentSubmission](ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc := *oldDoc
	doc.Status = input.Status
	doc.ReviewNote = input.ReviewNote
	doc.ReviewedAt = &now
	doc.ReviewedBy = utils.GetActorNameFromContext(ctx)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&DocumentSubmission{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      doc.Status,
			"review_note": doc.ReviewNote,
			"reviewed_at": doc.ReviewedAt,
			"reviewed_by": doc.ReviewedBy,
		}).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Document %s marked %s by %s.", doc.FileName, doc.Status, doc.ReviewedBy)
		if err := createHistory(tx, HistoryActionStatus, doc.QuotationId, string(EventReferenceQuotation),
			map[string]interface{}{"document_id": id, "status": oldDoc.Status},
			map[string]interface{}{"document_id": id, "status": doc.Status},
			description); err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceDocument, id, EventActionStatus, &doc, oldDoc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func DeleteDocumentSubmission(ctx context.Context, id int) (*DocumentSubmission, error) {
	doc, err := utils.FetchModel[DocumentSubmission](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(doc).Error; err != nil {
			return err
		}
		return recordEvent(tx, EventReferenceDocument, id, EventActionDelete, nil, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func GetDocumentSubmission(ctx context.Context, id int) (*DocumentSubmission, error) {
	return utils.FetchModel[DocumentSubmission](ctx, id)
}

type DocumentFilter struct {
	QuotationId *int            `form:"quotation_id"`
	Status      *DocumentStatus `form:"status"`
	CompanyName *string         `form:"company_name"`
	CompanyId   *int            `form:"company_id"`
}

func (f DocumentFilter) apply(db *gorm.DB, dbCtx *gorm.DB) *gorm.DB {
	if f.QuotationId != nil && *f.QuotationId > 0 {
		dbCtx = dbCtx.Where("quotation_id = ?", *f.QuotationId)
	}
	if f.Status != nil && *f.Status != "" {
		dbCtx = dbCtx.Where("status = ?", *f.Status)
	}
	if f.CompanyName != nil && *f.CompanyName != "" {
		dbCtx = dbCtx.Where("company_name LIKE ?", "%"+*f.CompanyName+"%")
	}
	if f.CompanyId != nil && *f.CompanyId > 0 {
		dbCtx = dbCtx.Where("quotation_id IN (?)", db.Model(&Quotation{}).Select("id").Where("company_id = ?", *f.CompanyId))
	}
	return dbCtx
}

func GetDocumentSubmissions(ctx context.Context, filter DocumentFilter) ([]*DocumentSubmission, error) {
	db := config.GetDB()
	dbCtx := filter.apply(db, db.WithContext(ctx).Model(&DocumentSubmission{}))
	var results []*DocumentSubmission
	if err := dbCtx.Order("submitted_at DESC").Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// cursor on submitted_at, tie-broken by id
func (d DocumentSubmission) GetCursor() string {
	return d.SubmittedAt.UTC().Format("2006-01-02 15:04:05.000000")
}

type DocumentSubmissionsConnection struct {
	Edges    []Edge[DocumentSubmission] `json:"edges"`
	PageInfo *PageInfo                  `json:"page_info"`
}

// PaginateDocumentSubmissions pages the review queue newest submission first.
func PaginateDocumentSubmissions(ctx context.Context, filter DocumentFilter, limit int, after *string) (*DocumentSubmissionsConnection, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := config.GetDB()
	dbCtx := filter.apply(db, db.WithContext(ctx).Model(&DocumentSubmission{}))
	edges, pageInfo, err := FetchPageCompositeCursor[DocumentSubmission](dbCtx, limit, after, "submitted_at", "<")
	if err != nil {
		return nil, err
	}
	return &DocumentSubmissionsConnection{Edges: edges, PageInfo: pageInfo}, nil
}

type ChecklistItem struct {
	DocumentType *DocumentType       `json:"document_type"`
	Latest       *DocumentSubmission `json:"latest_submission"`
	Approved     bool                `json:"approved"`
}

type DocumentChecklist struct {
	QuotationId int              `json:"quotation_id"`
	Items       []*ChecklistItem `json:"items"`
	Complete    bool             `json:"complete"`
}

// BuildChecklist matches the latest submission per document type against the
// configured types. It is complete when every required type has an approved submission.
func BuildChecklist(quotationId int, types []*DocumentType, docs []*DocumentSubmission) *DocumentChecklist {
	latestByType := make(map[string]*DocumentSubmission)
	approvedByType := make(map[string]bool)
	for _, d := range docs {
		key := checklistKey(d.DocumentTypeId, d.DocumentType)
		if cur, ok := latestByType[key]; !ok || d.SubmittedAt.After(cur.SubmittedAt) ||
			(d.SubmittedAt.Equal(cur.SubmittedAt) && d.ID > cur.ID) {
			latestByType[key] = d
		}
		if d.Status == DocumentStatusApproved {
			approvedByType[key] = true
		}
	}

	checklist := &DocumentChecklist{QuotationId: quotationId, Items: make([]*ChecklistItem, 0, len(types)), Complete: true}
	for _, t := range types {
		id := t.ID
		key := checklistKey(&id, t.Name)
		latest := latestByType[key]
		if latest == nil {
			latest = latestByType[checklistKey(nil, t.Name)]
		}
		approved := approvedByType[key] || approvedByType[checklistKey(nil, t.Name)]
		checklist.Items = append(checklist.Items, &ChecklistItem{DocumentType: t, Latest: latest, Approved: approved})
		if utils.DereferencePtr(t.IsRequired) && !approved {
			checklist.Complete = false
		}
	}
	return checklist
}

func checklistKey(typeId *int, name string) string {
	if typeId != nil && *typeId > 0 {
		return fmt.Sprintf("id:%d", *typeId)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(name))
}

func GetDocumentChecklist(ctx context.Context, quotationId int) (*DocumentChecklist, error) {
	if err := utils.ValidateResourceId[Quotation](ctx, quotationId); err != nil {
		return nil, err
	}
	types, err := GetDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := GetDocumentSubmissions(ctx, DocumentFilter{QuotationId: &quotationId})
	if err != nil {
		return nil, err
	}
	return BuildChecklist(quotationId, types, docs), nil
}
