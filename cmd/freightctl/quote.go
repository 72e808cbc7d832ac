package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type palletFile struct {
	Length   string `yaml:"length"`
	Width    string `yaml:"width"`
	Height   string `yaml:"height"`
	Weight   string `yaml:"weight"`
	Quantity int    `yaml:"quantity"`
}

type chargeFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
}

// quoteFile prices a shipment without a database: the rates travel with it.
type quoteFile struct {
	Rates             []rateTierFile    `yaml:"rates"`
	Pallets           []palletFile      `yaml:"pallets"`
	DeliveryRequired  bool              `yaml:"delivery_required"`
	VehicleType       string            `yaml:"vehicle_type"`
	DeliveryRates     map[string]string `yaml:"delivery_rates"`
	ClearanceCost     string            `yaml:"clearance_cost"`
	AdditionalCharges []chargeFile      `yaml:"additional_charges"`
}

func readQuote(r io.Reader) (pricing.Input, error) {
	var q quoteFile
	if err := yaml.NewDecoder(r).Decode(&q); err != nil {
		return pricing.Input{}, fmt.Errorf("decode quote: %w", err)
	}
	tiers, err := parseTiers(q.Rates)
	if err != nil {
		return pricing.Input{}, err
	}
	in := pricing.Input{
		Rates:            tiers,
		DeliveryRequired: q.DeliveryRequired,
		VehicleType:      q.VehicleType,
		DeliveryRates:    pricing.DefaultDeliveryRates(),
	}
	if len(q.DeliveryRates) > 0 {
		in.DeliveryRates = make(map[string]decimal.Decimal, len(q.DeliveryRates))
		for vehicle, amount := range q.DeliveryRates {
			if in.DeliveryRates[vehicle], err = parseDecimal("delivery_rates."+vehicle, amount); err != nil {
				return pricing.Input{}, err
			}
		}
	}
	if q.ClearanceCost != "" {
		if in.ClearanceCost, err = parseDecimal("clearance_cost", q.ClearanceCost); err != nil {
			return pricing.Input{}, err
		}
	}
	for i, p := range q.Pallets {
		field := fmt.Sprintf("pallets[%d]", i)
		pallet := pricing.Pallet{Quantity: p.Quantity}
		if pallet.Length, err = parseDecimal(field+".length", p.Length); err != nil {
			return pricing.Input{}, err
		}
		if pallet.Width, err = parseDecimal(field+".width", p.Width); err != nil {
			return pricing.Input{}, err
		}
		if pallet.Height, err = parseDecimal(field+".height", p.Height); err != nil {
			return pricing.Input{}, err
		}
		if pallet.Weight, err = parseDecimal(field+".weight", p.Weight); err != nil {
			return pricing.Input{}, err
		}
		in.Pallets = append(in.Pallets, pallet)
	}
	for i, c := range q.AdditionalCharges {
		amount, err := parseDecimal(fmt.Sprintf("additional_charges[%d].amount", i), c.Amount)
		if err != nil {
			return pricing.Input{}, err
		}
		in.AdditionalCharges = append(in.AdditionalCharges, pricing.AdditionalCharge{
			Name:        c.Name,
			Description: c.Description,
			Amount:      amount,
		})
	}
	return in, nil
}

func printQuote(w io.Writer, res pricing.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Pallet\tQty\tVolume kg\tActual kg\tChargeable kg\tRate\tCost\t")
	for _, p := range res.Pallets {
		if p.Skipped {
			fmt.Fprintf(tw, "%d\t%d\t-\t%s\t-\t-\tskipped\t\n", p.Index+1, p.Quantity, p.ActualWeight.StringFixed(2))
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Index+1, p.Quantity,
			p.VolumeWeight.StringFixed(2), p.ActualWeight.StringFixed(2), p.ChargeableWeight.StringFixed(2),
			p.Rate.StringFixed(2), p.Cost.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Volume (CBM)", res.TotalVolumeCBM},
		{"Chargeable weight", res.ChargeableWeight},
		{"Freight", res.TotalFreightCost},
		{"Delivery", res.DeliveryCost},
		{"Clearance", res.ClearanceCost},
		{"Sub total", res.SubTotal},
		{"Additional charges", res.TotalAdditionalCharges},
		{"Total cost", res.TotalCost},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.label, row.value.StringFixed(2))
	}
	return tw.Flush()
}

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "quote FILE",
		Short:       "Price a shipment described in a YAML file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			in, err := readQuote(file)
			if err != nil {
				return err
			}
			res, err := pricing.Calculate(in)
			if err != nil {
				return err
			}
			return printQuote(cmd.OutOrStdout(), res)
		},
	}
}
