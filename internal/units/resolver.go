package units

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	applog "bistro/internal/log"
)

// ErrRuleNotFound is returned by RuleStore implementations when no rule
// exists for an ordered unit pair.
var ErrRuleNotFound = errors.New("units: conversion rule not found")

// RuleStore looks up the stored conversion rate for an ordered unit pair.
type RuleStore interface {
	FindRule(ctx context.Context, fromUnit, toUnit string) (decimal.Decimal, error)
}

// ConversionError reports that no conversion path exists between two units of
// the same measurable dimension.
type ConversionError struct {
	FromUnit string
	ToUnit   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("units: no conversion path from %s to %s", e.FromUnit, e.ToUnit)
}

// Resolver converts quantities between measurable units using the rules in a
// RuleStore. It holds no other state and is safe for concurrent use.
type Resolver struct {
	rules RuleStore
}

// NewResolver builds a Resolver backed by the given rule store.
func NewResolver(rules RuleStore) *Resolver {
	return &Resolver{rules: rules}
}

// Convert returns quantity expressed in toUnit.
//
// Identity conversions return the quantity untouched. When either unit is
// opaque, or the two units belong to different dimensions, the quantity is
// returned unchanged as well: the domain mixes count-like and measurable
// units freely, so this is a lossy passthrough, not an error. Within one
// dimension the resolver tries a direct rule first and then a two-hop path
// through the dimension's base unit; if neither exists it returns a
// *ConversionError for the caller to handle.
func (r *Resolver) Convert(ctx context.Context, quantity decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, error) {
	if fromUnit == toUnit {
		return quantity, nil
	}

	fromDim := Classify(fromUnit)
	toDim := Classify(toUnit)
	if fromDim == DimensionNone || toDim == DimensionNone || fromDim != toDim {
		applog.Warn(ctx, "unit conversion skipped, carrying original unit",
			"fromUnit", fromUnit, "toUnit", toUnit,
			"fromDimension", fromDim.String(), "toDimension", toDim.String())
		return quantity, nil
	}

	rate, err := r.rules.FindRule(ctx, fromUnit, toUnit)
	if err == nil {
		return quantity.Mul(rate), nil
	}
	if !errors.Is(err, ErrRuleNotFound) {
		return decimal.Decimal{}, err
	}

	base, _ := BaseUnit(fromDim)
	toBase, err := r.rules.FindRule(ctx, fromUnit, base)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return decimal.Decimal{}, &ConversionError{FromUnit: fromUnit, ToUnit: toUnit}
		}
		return decimal.Decimal{}, err
	}
	fromBase, err := r.rules.FindRule(ctx, base, toUnit)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return decimal.Decimal{}, &ConversionError{FromUnit: fromUnit, ToUnit: toUnit}
		}
		return decimal.Decimal{}, err
	}

	return quantity.Mul(toBase).Mul(fromBase), nil
}

// Normalize converts a quantity in a measurable unit to its dimension's base
// unit. Opaque units and quantities already in the base unit come back
// unchanged with their original unit.
func (r *Resolver) Normalize(ctx context.Context, quantity decimal.Decimal, unit string) (decimal.Decimal, string, error) {
	base, ok := BaseUnit(Classify(unit))
	if !ok || unit == base {
		return quantity, unit, nil
	}

	converted, err := r.Convert(ctx, quantity, unit, base)
	if err != nil {
		return quantity, unit, err
	}
	return converted, base, nil
}
