// Package heuristic implements the deterministic capacity-constrained packer
// used as the default optimizer and as the fallback for the LLM path.
package heuristic

import (
	"fmt"
	"sort"

	"github.com/upb/route-optimizer/models"
)

// RouteIDPrefix prefixes the sequence number of generated route ids
const RouteIDPrefix = "ROUTE-"

// RouteID returns the route label for the n-th route (1-based) of a response
func RouteID(n int) string {
	return fmt.Sprintf("%s%d", RouteIDPrefix, n)
}

// Assign packs deliveries onto the fleet. Vehicles are visited by
// descending capacity (ties keep input order); each vehicle takes every
// remaining delivery, in input order, that still fits its remaining
// capacity. Deliveries left over after the last vehicle are unassigned.
//
// Assign is pure and total: it never fails and never mutates its inputs.
func Assign(deliveries []models.DeliveryItem, fleet []models.VehicleItem) models.OptimizationResult {
	vehicles := make([]models.VehicleItem, len(fleet))
	copy(vehicles, fleet)
	sort.SliceStable(vehicles, func(i, j int) bool {
		return vehicles[i].Capacity > vehicles[j].Capacity
	})

	remaining := make([]models.DeliveryItem, len(deliveries))
	copy(remaining, deliveries)

	routes := make([]models.OptimizedRoute, 0, len(vehicles))
	for _, vehicle := range vehicles {
		if len(remaining) == 0 {
			break
		}

		var stops []models.DeliveryItem
		var load float64
		leftover := remaining[:0:0]
		for _, delivery := range remaining {
			if load+delivery.Weight <= vehicle.Capacity {
				stops = append(stops, delivery)
				load += delivery.Weight
			} else {
				leftover = append(leftover, delivery)
			}
		}

		if len(stops) > 0 {
			routes = append(routes, models.OptimizedRoute{
				RouteID:     RouteID(len(routes) + 1),
				VehicleID:   vehicle.ID,
				Stops:       stops,
				TotalWeight: load,
			})
		}
		remaining = leftover
	}

	return models.OptimizationResult{
		OptimizedRoutes:      routes,
		UnassignedDeliveries: remaining,
		OptimizationMethod:   models.MethodBasicAlgorithm,
		LLMUsed:              false,
		Message:              summary(len(routes), len(deliveries)-len(remaining), len(remaining)),
	}
}

func summary(routes, assigned, unassigned int) string {
	msg := fmt.Sprintf("Basic algorithm assigned %d deliveries to %d routes", assigned, routes)
	if unassigned > 0 {
		msg += fmt.Sprintf("; %d deliveries could not be placed", unassigned)
	}
	return msg
}
