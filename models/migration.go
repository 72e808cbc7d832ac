package models

import (
	"context"

	"github.com/hiflogistics/freight_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&Company{}, &Destination{}, &FreightRate{}, &DeliveryRate{}, &Product{}, &DocumentType{}, &Setting{},
		&Quotation{}, &QuotationPallet{}, &QuotationCharge{},
		&DocumentSubmission{},
		&PackingList{}, &PackingListPallet{}, &PackingListProduct{},
		&Opportunity{}, &OpportunityTask{},
		&DebitNote{},
		&History{}, &OutboxEvent{},
	)
}

// Seed inserts the default delivery rates and document types when missing.
func Seed(ctx context.Context) error {
	if err := SeedDeliveryRates(ctx); err != nil {
		return err
	}
	return SeedDocumentTypes(ctx)
}
