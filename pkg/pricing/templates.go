package pricing

import (
	"sort"
	"strings"
)

var templates = map[string]Inputs{
	// Subscription software: no marginal cost, gateway fees, steady churn.
	"saas": {
		CP:        Float(0),
		CF:        Float(3500),
		TxF:       Float(0.50),
		TxP:       Float(3.99),
		Marketing: FixedMarketing(2000),
		Churn:     Float(5),
		PVS:       Float(49.90),
		Meta:      Float(300),
		MLLD:      Float(30),
	},
	// Digital course sold through a platform with heavy paid traffic.
	"infoproduct": {
		CP:        Float(0),
		CF:        Float(1000),
		TxF:       Float(2),
		TxP:       Float(9.90),
		Marketing: FixedMarketing(5000),
		Churn:     Float(2),
		PVS:       Float(197),
		Meta:      Float(100),
		MLLD:      Float(40),
	},
	// Physical goods through a marketplace.
	"ecommerce": {
		CP:        Float(45),
		CF:        Float(2000),
		TxF:       Float(0),
		TxP:       Float(12),
		Marketing: FixedMarketing(1500),
		Churn:     Float(0),
		PVS:       Float(129.90),
		Meta:      Float(150),
		MLLD:      Float(15),
	},
}

// Template returns a copy of a named preset.
func Template(name string) (Inputs, bool) {
	t, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Inputs{}, false
	}
	return Inputs{}.Merge(t), true
}

// TemplateNames lists the available presets in alphabetical order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
