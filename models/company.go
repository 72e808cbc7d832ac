package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/utils"
)

var ErrOnboardingTokenUsed = errors.New("onboarding link has already been used")

type Company struct {
	ID              int        `gorm:"primary_key" json:"id"`
	Name            string     `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Address         string     `gorm:"type:text" json:"address"`
	TaxId           string     `gorm:"size:50" json:"tax_id"`
	ContactPerson   string     `gorm:"size:255" json:"contact_person"`
	ContactEmail    string     `gorm:"size:255" json:"contact_email"`
	ContactPhone    string     `gorm:"size:30" json:"contact_phone"`
	OnboardingToken *string    `gorm:"size:64;uniqueIndex" json:"onboarding_token,omitempty"`
	OnboardedAt     *time.Time `json:"onboarded_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name          string `json:"name" validate:"required,max=255"`
	Address       string `json:"address"`
	TaxId         string `json:"tax_id" validate:"max=50"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  string `json:"contact_phone"`
}

// CompanyOnboarding is what a customer fills in through the public onboarding link.
type CompanyOnboarding struct {
	Address       string `json:"address" validate:"required"`
	TaxId         string `json:"tax_id" validate:"required,max=50"`
	ContactPerson string `json:"contact_person" validate:"required,max=255"`
	ContactEmail  string `json:"contact_email" validate:"required,email"`
	ContactPhone  string `json:"contact_phone" validate:"required"`
}

func (input *NewCompany) validate(ctx context.Context, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.ContactPhone != "" {
		phone, err := utils.NormalizePhoneNumber(input.ContactPhone)
		if err != nil {
			return utils.NewValidationError("contact_phone", err.Error())
		}
		input.ContactPhone = phone
	}
	return utils.ValidateUnique[Company](ctx, "name", input.Name, id)
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()
	company := Company{
		Name:          input.Name,
		Address:       input.Address,
		TaxId:         input.TaxId,
		ContactPerson: input.ContactPerson,
		ContactEmail:  input.ContactEmail,
		ContactPhone:  input.ContactPhone,
	}
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, invalidateResource[Company](company.ID)
}

func UpdateCompany(ctx context.Context, id int, input *NewCompany) (*Company, error) {
	company, err := utils.FetchModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(company).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Address":       input.Address,
		"TaxId":         input.TaxId,
		"ContactPerson": input.ContactPerson,
		"ContactEmail":  input.ContactEmail,
		"ContactPhone":  input.ContactPhone,
	}).Error; err != nil {
		return nil, err
	}
	return company, invalidateResource[Company](id)
}

func DeleteCompany(ctx context.Context, id int) (*Company, error) {
	company, err := utils.FetchModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Quotation](ctx, "company_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrRecordInUse
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(company).Error; err != nil {
		return nil, err
	}
	return company, invalidateResource[Company](id)
}

func GetCompany(ctx context.Context, id int) (*Company, error) {
	return GetResource[Company](ctx, id)
}

func GetCompanies(ctx context.Context, name *string) ([]*Company, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*Company
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// IssueOnboardingToken returns the company's pending onboarding token, creating one if needed.
func IssueOnboardingToken(ctx context.Context, id int) (*Company, error) {
	company, err := utils.FetchModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}
	if company.OnboardingToken != nil && company.OnboardedAt == nil {
		return company, nil
	}
	token := utils.NewToken()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(company).Updates(map[string]interface{}{
		"OnboardingToken": &token,
		"OnboardedAt":     nil,
	}).Error; err != nil {
		return nil, err
	}
	company.OnboardingToken = &token
	company.OnboardedAt = nil
	return company, invalidateResource[Company](id)
}

func GetCompanyByOnboardingToken(ctx context.Context, token string) (*Company, error) {
	if token == "" {
		return nil, utils.ErrorRecordNotFound
	}
	return utils.FetchModelWhere[Company](ctx, "onboarding_token = ?", token)
}

// CompleteOnboarding fills the company profile from the public form. A token can be used once.
func CompleteOnboarding(ctx context.Context, token string, input *CompanyOnboarding) (*Company, error) {
	company, err := GetCompanyByOnboardingToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if company.OnboardedAt != nil {
		return nil, ErrOnboardingTokenUsed
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	phone, err := utils.NormalizePhoneNumber(input.ContactPhone)
	if err != nil {
		return nil, utils.NewValidationError("contact_phone", err.Error())
	}

	now := time.Now().UTC()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(company).Updates(map[string]interface{}{
		"Address":       input.Address,
		"TaxId":         input.TaxId,
		"ContactPerson": input.ContactPerson,
		"ContactEmail":  input.ContactEmail,
		"ContactPhone":  phone,
		"OnboardedAt":   &now,
	}).Error; err != nil {
		return nil, err
	}
	return company, invalidateResource[Company](company.ID)
}
