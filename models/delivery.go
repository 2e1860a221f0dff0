package models

// DeliveryItem is a unit of cargo that must be placed on exactly one vehicle
type DeliveryItem struct {
	ID       string  `json:"id" validate:"notblank"`
	OrderID  string  `json:"orderId,omitempty"`
	Weight   float64 `json:"weight" validate:"gt=0"`
	Address  string  `json:"address,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// VehicleItem is a fleet vehicle with a weight capacity
type VehicleItem struct {
	ID       string  `json:"id" validate:"notblank"`
	Capacity float64 `json:"capacity" validate:"gt=0"`
	Type     string  `json:"type,omitempty"`
	Location string  `json:"location,omitempty"`
}

// RawDelivery is a delivery as received from a caller, before validation.
// Weight is kept untyped so that non-numeric values are reported by the
// validator instead of failing the JSON decode.
type RawDelivery struct {
	ID       string      `json:"id"`
	OrderID  string      `json:"orderId,omitempty"`
	Weight   interface{} `json:"weight"`
	Address  string      `json:"address,omitempty"`
	Priority *int        `json:"priority,omitempty"`
}

// RawVehicle is a vehicle as received from a caller, before validation
type RawVehicle struct {
	ID       string      `json:"id"`
	Capacity interface{} `json:"capacity"`
	Type     string      `json:"type,omitempty"`
	Location string      `json:"location,omitempty"`
}

// OptimizationRequest is the body of an optimize call
type OptimizationRequest struct {
	Deliveries []RawDelivery `json:"deliveries"`
	Fleet      []RawVehicle  `json:"fleet"`
}

// TotalWeight sums the weights of the given deliveries
func TotalWeight(items []DeliveryItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Weight
	}
	return total
}
