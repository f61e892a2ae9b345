package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
)

// LoadExportOptions reads ledger rules and ledger names from a YAML file.
//
//	bank_ledger: HDFC Bank
//	company_name: Acme Traders
//	suspense_ledger: Suspense
//	rules:
//	  - keywords: [swiggy, zomato]
//	    ledger: Staff Welfare
//	  - keywords: [self]
//	    ledger: Cash
//	    voucher_type: contra
func LoadExportOptions(path string) (domain.ExportOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ExportOptions{}, fmt.Errorf("LoadExportOptions: read %s: %w", path, err)
	}
	return ParseExportOptions(data)
}

// ExportOptions returns the options from the configured rules file, or the
// defaults when no file is set.
func (c *Config) ExportOptions() (domain.ExportOptions, error) {
	if c.Export.RulesPath == "" {
		return domain.ExportOptions{}.WithDefaults(), nil
	}
	return LoadExportOptions(c.Export.RulesPath)
}

// ParseExportOptions decodes YAML export options and applies defaults.
func ParseExportOptions(data []byte) (domain.ExportOptions, error) {
	var opts domain.ExportOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return domain.ExportOptions{}, fmt.Errorf("ParseExportOptions: decode yaml: %w", err)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return domain.ExportOptions{}, fmt.Errorf("ParseExportOptions: %w", err)
	}
	return opts, nil
}
