package models

// OptimizationMethod identifies which path produced a result
type OptimizationMethod string

const (
	// MethodBasicAlgorithm is the deterministic heuristic path
	MethodBasicAlgorithm OptimizationMethod = "basic_algorithm"

	// methodLLMPrefix prefixes the backend name on LLM-produced results
	methodLLMPrefix = "llm_"
)

// LLMMethod returns the optimization method label for an LLM backend
func LLMMethod(backend string) OptimizationMethod {
	return OptimizationMethod(methodLLMPrefix + backend)
}

// OptimizedRoute is the ordered set of deliveries assigned to one vehicle
type OptimizedRoute struct {
	RouteID     string         `json:"routeId"`
	VehicleID   string         `json:"vehicleId"`
	Stops       []DeliveryItem `json:"stops"`
	TotalWeight float64        `json:"totalWeight"`
}

// OptimizationResult is the unified outcome of one optimization call.
// Every input delivery appears exactly once, either in a route or in
// UnassignedDeliveries.
type OptimizationResult struct {
	OptimizationID       string             `json:"optimizationId,omitempty"`
	OptimizedRoutes      []OptimizedRoute   `json:"optimizedRoutes"`
	UnassignedDeliveries []DeliveryItem     `json:"unassignedDeliveries"`
	OptimizationMethod   OptimizationMethod `json:"optimization_method"`
	LLMUsed              bool               `json:"llm_used"`
	Message              string             `json:"message"`
	FallbackReason       string             `json:"fallbackReason,omitempty"`
}

// AssignedCount returns the number of deliveries placed on a route
func (r *OptimizationResult) AssignedCount() int {
	n := 0
	for _, route := range r.OptimizedRoutes {
		n += len(route.Stops)
	}
	return n
}

// ProviderKind is the deployment shape of the configured LLM backend
type ProviderKind string

const (
	ProviderKindRemote ProviderKind = "remote"
	ProviderKindLocal  ProviderKind = "local"
	ProviderKindNone   ProviderKind = "none"
)

// Reachability is a tri-state reachability check outcome
type Reachability string

const (
	ReachableYes     Reachability = "true"
	ReachableNo      Reachability = "false"
	ReachableUnknown Reachability = "unknown"
)

// ProviderStatus is a read-only view of the LLM configuration
type ProviderStatus struct {
	Provider   ProviderKind `json:"provider"`
	Backend    string       `json:"backend,omitempty"`
	Model      string       `json:"model"`
	Configured bool         `json:"configured"`
	Enabled    bool         `json:"enabled"`
	Reachable  Reachability `json:"reachable"`
	Error      string       `json:"error,omitempty"`
}
