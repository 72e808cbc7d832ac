package models

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/shopspring/decimal"
)

// BookingEmailInput carries the carrier details an operator fills in before sending.
type BookingEmailInput struct {
	RecipientName         string `json:"recipient_name"`
	SenderName            string `json:"sender_name"`
	Product               string `json:"product"`
	Airline               string `json:"airline"`
	PickupLocation        string `json:"pickup_location"`
	PreferredShipmentDate string `json:"preferred_shipment_date"`
	Mawb                  string `json:"mawb"`
	Origin                string `json:"origin"`
	Consignee             string `json:"consignee"`
	Routing               string `json:"routing"`
}

type BookingEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type bookingEmailData struct {
	BookingEmailInput
	Destination      string
	NetWeight        string
	NumberOfPieces   string
	PalletDimensions string
	Shipper          string
}

var bookingEmailTemplate = template.Must(template.New("booking").Parse(`Dear Khun {{or .RecipientName "[Recipient Name]"}},

I would like to book the following shipment:

Product: {{or .Product "[Product Name]"}}
Destination: {{or .Destination "[Destination]"}}
Net Weight: {{or .NetWeight "[Weight]"}} KG
Airline: {{or .Airline "[Airline]"}}
Pick-up from {{or .PickupLocation "BKK (location and date TBC)"}}
Prefer shipment date: {{or .PreferredShipmentDate "[Date]"}}

Please see attached all documents krub.

MAWB: {{or .Mawb "TBC"}}
DESCRIPTION OF CONTENTS, INCLUDING MODEL/MANUFACTURER: {{or .Product "[Product Name]"}}
WEIGHT: {{or .NetWeight "[Weight]"}} KG
NUMBER OF PIECE: {{or .NumberOfPieces "[Number] Pallets"}}
PALLET DIMENSION: {{or .PalletDimensions "[Length] × [Width] × [Height] cm"}}
ORIGIN: {{or .Origin "BKK"}}
DESTINATION: {{or .Destination "[Destination]"}}
SHIPPER: {{or .Shipper "[Shipper Company]"}}
CONSIGNEE: {{or .Consignee "[Consignee Company]"}}
ROUTING: {{or .Routing "[Origin Code]- [Destination Code]"}}


Best Regards,
{{or .SenderName "[Sender Name]"}}`))

// BookingEmailSubject follows "Booking Request - <product> to <destination>".
func BookingEmailSubject(product, destination string) string {
	if product == "" {
		product = "Shipment"
	}
	if destination == "" {
		destination = "International"
	}
	return fmt.Sprintf("Booking Request - %s to %s", product, destination)
}

// RenderBookingEmail fills the carrier booking email from a quotation. Net weight is the
// actual pallet weight, falling back to the stored totals when pallets carry none.
func RenderBookingEmail(q *Quotation, destination string, input BookingEmailInput) (*BookingEmail, error) {
	data := bookingEmailData{
		BookingEmailInput: input,
		Destination:       destination,
		Shipper:           q.CustomerName,
	}
	if data.Origin == "" {
		data.Origin = "BKK"
	}
	if data.PickupLocation == "" {
		data.PickupLocation = "BKK (location and date TBC)"
	}

	weight := decimal.Zero
	pieces := 0
	for _, p := range q.Pallets {
		qty := max(p.Quantity, 1)
		pieces += qty
		weight = weight.Add(p.Weight.Mul(decimal.NewFromInt(int64(qty))))
	}
	if weight.IsZero() {
		weight = q.TotalActualWeight
		if weight.IsZero() {
			weight = q.ChargeableWeight
		}
	}
	if weight.IsPositive() {
		data.NetWeight = weight.String()
	}
	if pieces > 0 {
		data.NumberOfPieces = fmt.Sprintf("%d Pallets", pieces)
	}
	if len(q.Pallets) > 0 {
		first := q.Pallets[0]
		data.PalletDimensions = fmt.Sprintf("%s × %s × %s cm", first.Length, first.Width, first.Height)
	}

	var body bytes.Buffer
	if err := bookingEmailTemplate.Execute(&body, data); err != nil {
		return nil, err
	}
	return &BookingEmail{
		Subject: BookingEmailSubject(data.Product, destination),
		Body:    body.String(),
	}, nil
}

// GetBookingEmail drafts the booking email for a stored quotation.
func GetBookingEmail(ctx context.Context, id int, input BookingEmailInput) (*BookingEmail, error) {
	quotation, err := GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	destination, err := GetDestination(ctx, quotation.DestinationId)
	if err != nil {
		return nil, err
	}
	if input.Product == "" {
		input.Product = linkedProductName(ctx, id)
	}
	return RenderBookingEmail(quotation, destination.Country, input)
}

func linkedProductName(ctx context.Context, quotationId int) string {
	opp, err := GetOpportunityByQuotation(ctx, quotationId)
	if err != nil || opp == nil || len(opp.Products) == 0 {
		return ""
	}
	return opp.Products[0].Name
}
