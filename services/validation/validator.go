// Package validation turns raw optimize requests into typed, immutable
// delivery and fleet collections.
package validation

import (
	"fmt"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
	"github.com/upb/route-optimizer/utils"
)

// Input is a validated optimize request
type Input struct {
	Deliveries []models.DeliveryItem
	Fleet      []models.VehicleItem
}

// Validate checks structural and numeric constraints on raw deliveries and
// fleet. All problems are collected into a single validation error whose
// details are keyed by field path, e.g. "deliveries[2].weight".
func Validate(rawDeliveries []models.RawDelivery, rawFleet []models.RawVehicle) (*Input, error) {
	fields := make(map[string]string)

	if len(rawDeliveries) == 0 {
		fields["deliveries"] = "deliveries must not be empty"
	}
	if len(rawFleet) == 0 {
		fields["fleet"] = "fleet must not be empty"
	}

	deliveries := make([]models.DeliveryItem, 0, len(rawDeliveries))
	seenDeliveries := make(map[string]int, len(rawDeliveries))
	for i, raw := range rawDeliveries {
		prefix := fmt.Sprintf("deliveries[%d]", i)

		item := models.DeliveryItem{
			ID:       raw.ID,
			OrderID:  raw.OrderID,
			Address:  raw.Address,
			Priority: raw.Priority,
		}
		weight, err := utils.ToNumber(raw.Weight)
		if err != nil {
			fields[prefix+".weight"] = "weight must be a number"
		} else {
			item.Weight = weight
		}

		collectFieldErrors(fields, prefix, &item, err != nil)

		if first, dup := seenDeliveries[raw.ID]; dup && raw.ID != "" {
			fields[prefix+".id"] = fmt.Sprintf("id %q duplicates deliveries[%d]", raw.ID, first)
		} else {
			seenDeliveries[raw.ID] = i
		}
		deliveries = append(deliveries, item)
	}

	fleet := make([]models.VehicleItem, 0, len(rawFleet))
	seenVehicles := make(map[string]int, len(rawFleet))
	for i, raw := range rawFleet {
		prefix := fmt.Sprintf("fleet[%d]", i)

		item := models.VehicleItem{
			ID:       raw.ID,
			Type:     raw.Type,
			Location: raw.Location,
		}
		capacity, err := utils.ToNumber(raw.Capacity)
		if err != nil {
			fields[prefix+".capacity"] = "capacity must be a number"
		} else {
			item.Capacity = capacity
		}

		collectFieldErrors(fields, prefix, &item, err != nil)

		if first, dup := seenVehicles[raw.ID]; dup && raw.ID != "" {
			fields[prefix+".id"] = fmt.Sprintf("id %q duplicates fleet[%d]", raw.ID, first)
		} else {
			seenVehicles[raw.ID] = i
		}
		fleet = append(fleet, item)
	}

	if len(fields) > 0 {
		return nil, services.NewValidationError("invalid optimization request", fields)
	}

	return &Input{Deliveries: deliveries, Fleet: fleet}, nil
}

// collectFieldErrors runs struct tag validation on item and records each
// failure under prefix. When numericFailed is set the numeric field already
// has a more precise message and the tag failure for it is skipped.
func collectFieldErrors(fields map[string]string, prefix string, item interface{}, numericFailed bool) {
	err := utils.ValidateStruct(item)
	if err == nil {
		return
	}
	for field, msg := range utils.GetValidationFields(err) {
		key := prefix + "." + field
		if _, exists := fields[key]; exists && numericFailed {
			continue
		}
		fields[key] = msg
	}
}
