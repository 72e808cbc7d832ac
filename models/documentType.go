package models

import (
	"context"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
)

type DocumentType struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Category    string    `gorm:"size:100;index" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	IsRequired  *bool     `gorm:"not null;default:false" json:"is_required"`
	TemplateUrl string    `gorm:"size:500" json:"template_url"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDocumentType struct {
	Name        string `json:"name" validate:"required,max=255"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description"`
	IsRequired  *bool  `json:"is_required"`
	TemplateUrl string `json:"template_url" validate:"omitempty,url,max=500"`
	SortOrder   int    `json:"sort_order"`
}

// default document types used when seeding an empty database
var defaultDocumentTypes = []NewDocumentType{
	{Name: "Commercial Invoice", Category: "Shipping", IsRequired: utils.NewTrue(), SortOrder: 1},
	{Name: "Packing List", Category: "Shipping", IsRequired: utils.NewTrue(), SortOrder: 2},
	{Name: "Certificate of Origin", Category: "Customs", IsRequired: utils.NewFalse(), SortOrder: 3},
	{Name: "Export License", Category: "Customs", IsRequired: utils.NewFalse(), SortOrder: 4},
	{Name: "Phytosanitary Certificate", Category: "Health", IsRequired: utils.NewFalse(), SortOrder: 5},
	{Name: "Airway Bill", Category: "Shipping", IsRequired: utils.NewFalse(), SortOrder: 6},
}

func (input *NewDocumentType) validate(ctx context.Context, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.IsRequired == nil {
		input.IsRequired = utils.NewFalse()
	}
	return utils.ValidateUnique[DocumentType](ctx, "name", input.Name, id)
}

func CreateDocumentType(ctx context.Context, input *NewDocumentType) (*DocumentType, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	db := config.GetDB()
	docType := DocumentType{
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		IsRequired:  input.IsRequired,
		TemplateUrl: input.TemplateUrl,
		SortOrder:   input.SortOrder,
	}
	if err := db.WithContext(ctx).Create(&docType).Error; err != nil {
		return nil, err
	}
	return &docType, invalidateResource[DocumentType](docType.ID)
}

func UpdateDocumentType(ctx context.Context, id int, input *NewDocumentType) (*DocumentType, error) {
	docType, err := utils.FetchModel[DocumentType](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(docType).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Category":    input.Category,
		"Description": input.Description,
		"IsRequired":  input.IsRequired,
		"TemplateUrl": input.TemplateUrl,
		"SortOrder":   input.SortOrder,
	}).Error; err != nil {
		return nil, err
	}
	return docType, invalidateResource[DocumentType](id)
}

func DeleteDocumentType(ctx context.Context, id int) (*DocumentType, error) {
	docType, err := utils.FetchModel[DocumentType](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	// submissions keep their document type name
	if err := tx.Model(&DocumentSubmission{}).Where("document_type_id = ?", id).Update("document_type_id", nil).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(docType).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return docType, invalidateResource[DocumentType](id)
}

func GetDocumentType(ctx context.Context, id int) (*DocumentType, error) {
	return GetResource[DocumentType](ctx, id)
}

func GetDocumentTypes(ctx context.Context) ([]*DocumentType, error) {
	return ListAllResource[DocumentType](ctx, "sort_order", "name")
}

// GetRequiredDocumentTypes backs the public document requirements page.
func GetRequiredDocumentTypes(ctx context.Context) ([]*DocumentType, error) {
	all, err := GetDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	required := make([]*DocumentType, 0, len(all))
	for _, dt := range all {
		if utils.DereferencePtr(dt.IsRequired) {
			required = append(required, dt)
		}
	}
	return required, nil
}

func SeedDocumentTypes(ctx context.Context) error {
	db := config.GetDB()
	for _, input := range defaultDocumentTypes {
		docType := DocumentType{
			Name:       input.Name,
			Category:   input.Category,
			IsRequired: input.IsRequired,
			SortOrder:  input.SortOrder,
		}
		if err := db.WithContext(ctx).Where("name = ?", input.Name).FirstOrCreate(&docType).Error; err != nil {
			return err
		}
	}
	return utils.RemoveRedisLists[DocumentType]()
}
