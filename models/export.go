package models

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const XlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var rateCardHeadings = []string{"Min Weight", "Max Weight", "Base Rate", "Currency", "Effective Date"}

func newSheetFile(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// writeRow writes values starting at column A of rowNo.
func writeRow(f *excelize.File, sheet string, rowNo int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func decimalCell(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func optionalDecimalCell(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return decimalCell(*d)
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// QuotationRegisterXlsx lists one row per quotation.
func QuotationRegisterXlsx(quotations []*Quotation, destinations map[int]string) (*excelize.File, error) {
	sheet := "Quotations"
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, err
	}
	headings := []interface{}{
		"Quotation No", "Date", "Customer", "Destination", "Status", "Pallets",
		"Chargeable Weight", "Freight", "Clearance", "Delivery", "Additional", "Total", "Currency",
	}
	if err := writeRow(f, sheet, 1, headings...); err != nil {
		return nil, err
	}
	for i, q := range quotations {
		pallets := 0
		for _, p := range q.Pallets {
			pallets += max(p.Quantity, 1)
		}
		err := writeRow(f, sheet, i+2,
			q.QuotationNumber,
			q.CreatedAt.Format("2006-01-02"),
			q.CustomerName,
			destinations[q.DestinationId],
			string(q.Status),
			pallets,
			decimalCell(q.ChargeableWeight),
			decimalCell(q.TotalFreightCost),
			decimalCell(q.ClearanceCost),
			decimalCell(q.DeliveryCost),
			decimalCell(q.TotalAdditionalCharges),
			decimalCell(q.TotalCost),
			q.Currency,
		)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func ExportQuotationRegister(ctx context.Context, filter QuotationFilter) (*excelize.File, error) {
	quotations, err := GetQuotations(ctx, filter)
	if err != nil {
		return nil, err
	}
	destinations, err := GetDestinations(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(destinations))
	for _, d := range destinations {
		names[d.ID] = d.DisplayName()
	}
	return QuotationRegisterXlsx(quotations, names)
}

// PackingListXlsx lays out the header parties followed by one row per product line.
func PackingListXlsx(pl *PackingList) (*excelize.File, error) {
	sheet := "Packing List"
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, err
	}
	header := [][]interface{}{
		{"PACKING LIST", pl.PackingListNo},
		{"Consigner", pl.Consigner.Name, pl.Consigner.Address, pl.Consigner.Phone},
		{"Consignee", pl.Consignee.Name, pl.Consignee.Address, pl.Consignee.Phone},
		{"Shipped To", pl.ShippedTo.Name, pl.ShippedTo.Address, pl.ShippedTo.Phone},
		{"Port of Loading", pl.PortOfLoading, "Port of Discharge", pl.PortOfDischarge},
		{"Type of Shipment", pl.TypeOfShipment, "Country of Origin", pl.CountryOfOrigin},
		{"Shipping Mark", pl.ShippingMark, "Box Size", pl.BoxSize},
	}
	rowNo := 1
	for _, values := range header {
		if err := writeRow(f, sheet, rowNo, values...); err != nil {
			return nil, err
		}
		rowNo++
	}
	rowNo++

	if err := writeRow(f, sheet, rowNo, "Pallet", "Box No", "Product Code", "Description", "Batch No",
		"Quantity", "Weight/Box", "Gross Weight"); err != nil {
		return nil, err
	}
	rowNo++
	for _, pallet := range pl.Pallets {
		boxes := fmt.Sprintf("%d-%d", pallet.BoxFrom, pallet.BoxTo)
		for _, p := range pallet.Products {
			if err := writeRow(f, sheet, rowNo,
				pallet.PalletNumber, boxes, p.ProductCode, p.Description, p.BatchNo,
				p.Quantity, decimalCell(p.WeightPerBox), decimalCell(p.GrossWeight()),
			); err != nil {
				return nil, err
			}
			rowNo++
			if utils.DereferencePtr(p.HasMixedProducts) {
				if err := writeRow(f, sheet, rowNo,
					pallet.PalletNumber, boxes, p.SecondProductCode, p.SecondDescription, p.SecondBatchNo,
					p.SecondQuantity, optionalDecimalCell(p.SecondWeightPerBox), optionalDecimalCell(p.SecondTotalGrossWeight),
				); err != nil {
					return nil, err
				}
				rowNo++
			}
		}
	}
	boxes, gross := PackingListTotals(pl.Pallets)
	if err := writeRow(f, sheet, rowNo, "TOTAL", fmt.Sprintf("%d boxes", boxes), "", "", "", "", "", decimalCell(gross)); err != nil {
		return nil, err
	}
	return f, nil
}

func ExportPackingList(ctx context.Context, id int) (*excelize.File, error) {
	pl, err := GetPackingList(ctx, id)
	if err != nil {
		return nil, err
	}
	return PackingListXlsx(pl)
}

func RateCardXlsx(destination *Destination, rates []*FreightRate) (*excelize.File, error) {
	sheet := "Rates"
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, err
	}
	headings := make([]interface{}, 0, len(rateCardHeadings))
	for _, h := range rateCardHeadings {
		headings = append(headings, h)
	}
	if err := writeRow(f, sheet, 1, headings...); err != nil {
		return nil, err
	}
	for i, r := range rates {
		if err := writeRow(f, sheet, i+2,
			optionalDecimalCell(r.MinWeight),
			optionalDecimalCell(r.MaxWeight),
			decimalCell(r.BaseRate),
			r.Currency,
			dateCell(r.EffectiveDate),
		); err != nil {
			return nil, err
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: destination.DisplayName()}); err != nil {
		return nil, err
	}
	return f, nil
}

func ExportRateCard(ctx context.Context, destinationId int) (*excelize.File, error) {
	destination, err := GetDestination(ctx, destinationId)
	if err != nil {
		return nil, err
	}
	rates, err := GetFreightRates(ctx, destinationId)
	if err != nil {
		return nil, err
	}
	return RateCardXlsx(destination, rates)
}

// ReadRateCardXlsx parses the first sheet of a rate card laid out like RateCardXlsx.
// Empty weight cells are open bounds.
func ReadRateCardXlsx(r io.Reader, destinationId int) ([]NewFreightRate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate card: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	var rates []NewFreightRate
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if cell(0) == "" && cell(1) == "" && cell(2) == "" {
			continue
		}
		rate := NewFreightRate{DestinationId: destinationId, Currency: cell(3)}
		if rate.MinWeight, err = optionalAmount(cell(0)); err != nil {
			return nil, fmt.Errorf("row %d min weight: %w", i+1, err)
		}
		if rate.MaxWeight, err = optionalAmount(cell(1)); err != nil {
			return nil, fmt.Errorf("row %d max weight: %w", i+1, err)
		}
		if rate.BaseRate, err = utils.ParseAmount(cell(2)); err != nil {
			return nil, fmt.Errorf("row %d base rate: %w", i+1, err)
		}
		if s := cell(4); s != "" {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return nil, fmt.Errorf("row %d effective date: %w", i+1, err)
			}
			rate.EffectiveDate = &d
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

func optionalAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := utils.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
