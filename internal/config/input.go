// Package config loads scenario files: a YAML document with a `config`
// section (the simulation inputs) and an optional `scenario` section (the
// per-run overlay).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
)

// ScenarioSection is the YAML shape of the per-run overlay.
type ScenarioSection struct {
	BuyerReturnPct     float64 `yaml:"buyer_return"`
	RenterReturnPct    float64 `yaml:"renter_return"`
	AppreciationPct    float64 `yaml:"appreciation"`
	InvestDifference   bool    `yaml:"invest_difference"`
	RentClosingCosts   bool    `yaml:"rent_closing_costs"`
	MarketCorrelation  float64 `yaml:"market_correlation"`
	Seed               *int64  `yaml:"seed"`
	NumSims            *int    `yaml:"num_sims"`
	ForceDeterministic bool    `yaml:"force_deterministic"`
	ForceVolatility    *bool   `yaml:"force_volatility"`
}

// Params converts the YAML section to the engine overlay.
func (s ScenarioSection) Params() domain.ScenarioParams {
	return domain.ScenarioParams{
		BuyerReturnPct:     s.BuyerReturnPct,
		RenterReturnPct:    s.RenterReturnPct,
		AppreciationPct:    s.AppreciationPct,
		InvestDifference:   s.InvestDifference,
		RentClosingCosts:   s.RentClosingCosts,
		MarketCorrelation:  s.MarketCorrelation,
		Seed:               s.Seed,
		NumSimsOverride:    s.NumSims,
		ForceDeterministic: s.ForceDeterministic,
		ForceVolatility:    s.ForceVolatility,
	}
}

// ScenarioFile is a parsed scenario document.
type ScenarioFile struct {
	Config   domain.Configuration `yaml:"config"`
	Scenario ScenarioSection      `yaml:"scenario"`
}

// InputParser handles parsing of scenario input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a scenario from a YAML file. Absent keys keep the
// documented defaults.
func (ip *InputParser) LoadFromFile(filename string) (*ScenarioFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a scenario document.
func (ip *InputParser) Parse(data []byte) (*ScenarioFile, error) {
	sf := &ScenarioFile{Config: domain.DefaultConfiguration()}
	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ip.ValidateConfiguration(&sf.Config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := ip.validateScenario(&sf.Scenario); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	return sf, nil
}

// ValidateConfiguration checks structural validity. Advisory policy checks
// (LTV limits, amortization caps) live in the validation package; this only
// rejects inputs the engine cannot run.
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if config.Years < 1 {
		return fmt.Errorf("years must be at least 1, got %d", config.Years)
	}
	if config.Price < 0 {
		return fmt.Errorf("price cannot be negative, got %.2f", config.Price)
	}
	if config.Down < 0 {
		return fmt.Errorf("down payment cannot be negative, got %.2f", config.Down)
	}
	if config.Down > config.Price {
		return fmt.Errorf("down payment %.2f exceeds price %.2f", config.Down, config.Price)
	}
	if config.Rent < 0 {
		return fmt.Errorf("rent cannot be negative, got %.2f", config.Rent)
	}
	if config.AmortizationMonths < 1 {
		return fmt.Errorf("amortization must be at least 1 month, got %d", config.AmortizationMonths)
	}
	if config.UseVolatility && config.NumSims < 1 {
		return fmt.Errorf("num_sims must be at least 1 when volatility is on, got %d", config.NumSims)
	}
	if config.ReturnStd < 0 || config.ApprecStd < 0 {
		return fmt.Errorf("volatility cannot be negative (ret_std %.4f, apprec_std %.4f)", config.ReturnStd, config.ApprecStd)
	}
	if config.SellCostRate < 0 || config.SellCostRate >= 1 {
		return fmt.Errorf("sell_cost must be a fraction in [0, 1), got %.4f", config.SellCostRate)
	}
	if config.CrisisEnabled {
		if config.CrisisStockDrawdown < 0 || config.CrisisStockDrawdown > 1 {
			return fmt.Errorf("crisis_stock_dd must be a fraction in [0, 1], got %.4f", config.CrisisStockDrawdown)
		}
		if config.CrisisHouseDrawdown < 0 || config.CrisisHouseDrawdown > 1 {
			return fmt.Errorf("crisis_house_dd must be a fraction in [0, 1], got %.4f", config.CrisisHouseDrawdown)
		}
	}
	if config.BudgetEnabled && config.MonthlyIncome < 0 {
		return fmt.Errorf("monthly_income cannot be negative, got %.2f", config.MonthlyIncome)
	}
	if config.HBPEnabled && config.HBPWithdrawal < 0 {
		return fmt.Errorf("hbp_withdrawal cannot be negative, got %.2f", config.HBPWithdrawal)
	}
	if config.MortgageTermMonths < 0 {
		return fmt.Errorf("mortgage_term_months cannot be negative, got %d", config.MortgageTermMonths)
	}
	// Loose model labels fold to the canonical names.
	config.PropTaxGrowthModel = domain.ParsePropertyTaxGrowthModel(string(config.PropTaxGrowthModel))
	return nil
}

func (ip *InputParser) validateScenario(sc *ScenarioSection) error {
	if sc.MarketCorrelation < -1 || sc.MarketCorrelation > 1 {
		return fmt.Errorf("market_correlation must be in [-1, 1], got %.4f", sc.MarketCorrelation)
	}
	if sc.NumSims != nil && *sc.NumSims < 1 {
		return fmt.Errorf("num_sims override must be at least 1, got %d", *sc.NumSims)
	}
	return nil
}

// LoadRawState reads a scenario file's `config` section as a plain map for
// snapshot hashing, keeping exactly the keys the author wrote.
func (ip *InputParser) LoadRawState(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	var doc struct {
		Config map[string]any `yaml:"config"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Config == nil {
		// Bare documents without the wrapper are treated as the state itself.
		var flat map[string]any
		if err := yaml.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return flat, nil
	}
	return doc.Config, nil
}
