package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// rateTierFile is one weight tier as written in YAML. Amounts are kept as
// text so they parse without float rounding.
type rateTierFile struct {
	MinWeight     string `yaml:"min_weight"`
	MaxWeight     string `yaml:"max_weight"`
	Rate          string `yaml:"rate"`
	EffectiveDate string `yaml:"effective_date"`
}

type rateCardFile struct {
	Destination struct {
		Country     string `yaml:"country"`
		Port        string `yaml:"port"`
		AirportCode string `yaml:"airport_code"`
	} `yaml:"destination"`
	Currency string         `yaml:"currency"`
	Rates    []rateTierFile `yaml:"rates"`
}

func parseId(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", field, s)
	}
	return d, nil
}

func parseOptionalDecimal(field, s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDecimal(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (t rateTierFile) tier(i int) (pricing.RateTier, error) {
	prefix := fmt.Sprintf("rates[%d]", i)
	minWeight, err := parseOptionalDecimal(prefix+".min_weight", t.MinWeight)
	if err != nil {
		return pricing.RateTier{}, err
	}
	maxWeight, err := parseOptionalDecimal(prefix+".max_weight", t.MaxWeight)
	if err != nil {
		return pricing.RateTier{}, err
	}
	rate, err := parseDecimal(prefix+".rate", t.Rate)
	if err != nil {
		return pricing.RateTier{}, err
	}
	return pricing.RateTier{MinWeight: minWeight, MaxWeight: maxWeight, Rate: rate}, nil
}

func parseTiers(rates []rateTierFile) ([]pricing.RateTier, error) {
	tiers := make([]pricing.RateTier, 0, len(rates))
	for i, r := range rates {
		tier, err := r.tier(i)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func readRateCard(r io.Reader) (*rateCardFile, error) {
	var card rateCardFile
	if err := yaml.NewDecoder(r).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode rate card: %w", err)
	}
	if len(card.Rates) == 0 {
		return nil, fmt.Errorf("rate card has no rates")
	}
	return &card, nil
}

// freightRates converts the card into inputs for one destination.
func (card *rateCardFile) freightRates(destinationId int) ([]models.NewFreightRate, error) {
	inputs := make([]models.NewFreightRate, 0, len(card.Rates))
	for i, r := range card.Rates {
		tier, err := r.tier(i)
		if err != nil {
			return nil, err
		}
		input := models.NewFreightRate{
			DestinationId: destinationId,
			MinWeight:     tier.MinWeight,
			MaxWeight:     tier.MaxWeight,
			BaseRate:      tier.Rate,
			Currency:      card.Currency,
		}
		if r.EffectiveDate != "" {
			date, err := time.Parse("2006-01-02", r.EffectiveDate)
			if err != nil {
				return nil, fmt.Errorf("rates[%d].effective_date: %w", i, err)
			}
			input.EffectiveDate = &date
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// destinationFor finds the card's destination by country and port, creating it
// when missing.
func (card *rateCardFile) destinationFor(ctx context.Context) (*models.Destination, error) {
	d := card.Destination
	if strings.TrimSpace(d.Country) == "" || strings.TrimSpace(d.Port) == "" {
		return nil, fmt.Errorf("destination.country and destination.port are required")
	}
	existing, err := models.GetDestinations(ctx)
	if err != nil {
		return nil, err
	}
	for _, dest := range existing {
		if strings.EqualFold(dest.Country, strings.TrimSpace(d.Country)) && strings.EqualFold(dest.Port, strings.TrimSpace(d.Port)) {
			return dest, nil
		}
	}
	return models.CreateDestination(ctx, &models.NewDestination{
		Country:     d.Country,
		Port:        d.Port,
		AirportCode: d.AirportCode,
	})
}

func importRates(ctx context.Context, path string, destinationId int) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var inputs []models.NewFreightRate
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		if destinationId <= 0 {
			return 0, fmt.Errorf("--destination is required for xlsx rate cards")
		}
		if _, err := models.GetDestination(ctx, destinationId); err != nil {
			return 0, err
		}
		inputs, err = models.ReadRateCardXlsx(file, destinationId)
		if err != nil {
			return 0, err
		}
	} else {
		card, err := readRateCard(file)
		if err != nil {
			return 0, err
		}
		if destinationId <= 0 {
			dest, err := card.destinationFor(ctx)
			if err != nil {
				return 0, err
			}
			destinationId = dest.ID
		}
		inputs, err = card.freightRates(destinationId)
		if err != nil {
			return 0, err
		}
	}
	for i := range inputs {
		if _, err := models.CreateFreightRate(ctx, &inputs[i]); err != nil {
			return i, fmt.Errorf("rate %d: %w", i+1, err)
		}
	}
	return len(inputs), nil
}

func newRatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Freight rate card tools",
	}

	var destinationId int
	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a YAML or xlsx rate card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := importRates(cmd.Context(), args[0], destinationId)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rates\n", n)
			return nil
		},
	}
	importCmd.Flags().IntVar(&destinationId, "destination", 0, "destination id (required for xlsx)")

	var out string
	exportCmd := &cobra.Command{
		Use:   "export DESTINATION_ID",
		Short: "Write a destination's rate card workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			f, err := models.ExportRateCard(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer f.Close()
			if out == "" {
				out = fmt.Sprintf("rate-card-%d.xlsx", id)
			}
			if err := f.SaveAs(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&out, "output", "o", "", "output file")

	cmd.AddCommand(importCmd, exportCmd)
	return cmd
}
