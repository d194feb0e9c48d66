// Package intent turns a spoken payment command into a model.Intent using
// fixed keyword rules.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/and161185/vpay/internal/model"
)

// Triggers are the words that mark a transcript as a payment command. A
// recharge is a payment in its own right, so it triggers as well.
var Triggers = []string{"pay", "recharge"}

var digitRun = regexp.MustCompile(`[0-9]+`)

// Rule maps a set of keywords to a biller. A rule matches when the
// normalized text contains any of its keywords.
type Rule struct {
	Keywords []string
	Biller   model.Biller
}

func (r Rule) Match(normalized string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// BillerRules is evaluated in order, first match wins.
var BillerRules = []Rule{
	{Keywords: []string{"electricity"}, Biller: model.ElectricityBoard},
	{Keywords: []string{"water"}, Biller: model.WaterBoard},
	{Keywords: []string{"mobile", "recharge"}, Biller: model.MobileRecharge},
}

// Extract never fails: text without a trigger word yields an Unknown
// intent with no amount and no biller.
func Extract(text string) model.Intent {
	normalized := strings.ToLower(text)

	if !IsPayment(normalized) {
		return model.Intent{Kind: model.Unknown}
	}

	biller := ResolveBiller(normalized, BillerRules)
	return model.Intent{
		Kind:     model.BillPayment,
		Amount:   FirstAmount(text),
		Biller:   biller,
		Category: biller.Category(),
	}
}

func IsPayment(normalized string) bool {
	for _, word := range Triggers {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

// FirstAmount returns the value of the first run of decimal digits in text,
// or 0 when there is none or it does not fit in int64.
func FirstAmount(text string) int64 {
	run := digitRun.FindString(text)
	if run == "" {
		return 0
	}
	amount, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return 0
	}
	return amount
}

func ResolveBiller(normalized string, rules []Rule) model.Biller {
	for _, rule := range rules {
		if rule.Match(normalized) {
			return rule.Biller
		}
	}
	return model.BillerNone
}
