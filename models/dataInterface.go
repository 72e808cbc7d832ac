package models

import (
	"time"

	"github.com/hiflogistics/freight_backend/utils"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

func (c Company) GetId() int {
	return c.ID
}

func (c Company) GetDefault(id int) Data {
	return Company{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (d Destination) GetId() int {
	return d.ID
}

func (d Destination) GetDefault(id int) Data {
	return Destination{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (d DocumentType) GetId() int {
	return d.ID
}

func (d DocumentType) GetDefault(id int) Data {
	return DocumentType{
		ID:         id,
		IsRequired: utils.NewFalse(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func (d DocumentSubmission) GetId() int {
	return d.ID
}

// each id may have many related results
type RelatedData interface {
	GetReferenceId() int
}

func (d DocumentSubmission) GetReferenceId() int {
	return d.QuotationId
}

func (p QuotationPallet) GetReferenceId() int {
	return p.QuotationId
}
