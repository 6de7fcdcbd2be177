package cmd

import (
	"github.com/etnz/budget"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of bw.
//
// Install it with `COMP_INSTALL=1 bw`.
func Completion() *complete.Command {
	kinds := predict.Set(budget.Kinds)
	periods := predict.Set{"day", "week", "month", "quarter", "year"}
	currencies := predict.Set{"USD", "EUR", "GBP", "CHF", "JPY", "CAD"}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config":           predict.Files("*.yaml"),
			"data-dir":         predict.Dirs("*"),
			"database":         predict.Something,
			"default-currency": currencies,
			"v":                predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"serve": {Flags: map[string]complete.Predictor{"addr": predict.Something}},
			"list": {Flags: map[string]complete.Predictor{
				"k":   kinds,
				"p":   periods,
				"d":   predict.Something,
				"raw": predict.Nothing,
			}},
			"account": {Flags: map[string]complete.Predictor{
				"name":     predict.Something,
				"amount":   predict.Something,
				"currency": currencies,
			}},
			"expense": {Flags: movementFlags()},
			"earning": {Flags: movementFlags()},
			"delete": {Flags: map[string]complete.Predictor{
				"k":  kinds,
				"id": predict.Something,
			}},
			"rate": {
				Flags: map[string]complete.Predictor{"amount": predict.Something},
				Args:  currencies,
			},
			"fmt": {},
			"migrate": {Flags: map[string]complete.Predictor{
				"to":     predict.Something,
				"to-dir": predict.Dirs("*"),
			}},
			"topic": {Args: predict.Set{"records", "api", "storage", "currencies", "config", "*"}},
		},
	}
}

func movementFlags() map[string]complete.Predictor {
	return map[string]complete.Predictor{
		"name":    predict.Something,
		"amount":  predict.Something,
		"account": predict.Something,
		"d":       predict.Something,
	}
}
