package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
)

// GrammarVersion tags the reply format the model is asked to produce
const GrammarVersion = "route-assignment/v1"

// Section headers of the user message. Each is followed by one line of JSON.
const (
	VehiclesHeader   = "VEHICLES:"
	DeliveriesHeader = "DELIVERIES:"
)

const systemPrompt = `You are a logistics route planner. You assign delivery packages to vehicles.
Hard rules:
- A vehicle's assigned weight must never exceed its capacity.
- Every delivery goes to at most one vehicle.
- Use only the ids given in the request, copied exactly.
You answer with a single JSON object and no other text.`

// Prompt is the instruction sent to a model backend
type Prompt struct {
	System string
	User   string
}

type promptVehicle struct {
	ID       string  `json:"id"`
	Capacity float64 `json:"capacity"`
	Type     string  `json:"type,omitempty"`
	Location string  `json:"location,omitempty"`
}

type promptDelivery struct {
	ID       string  `json:"id"`
	Weight   float64 `json:"weight"`
	OrderID  string  `json:"orderId,omitempty"`
	Address  string  `json:"address,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// Build renders the assignment problem for the model. Ids are emitted as
// JSON strings so that every id round-trips regardless of its characters.
// Free-text fields are screened first; a rejected field fails the build.
func Build(deliveries []models.DeliveryItem, fleet []models.VehicleItem) (Prompt, error) {
	if err := screen(deliveries, fleet); err != nil {
		return Prompt{}, err
	}

	vehicles := make([]promptVehicle, len(fleet))
	for i, v := range fleet {
		vehicles[i] = promptVehicle{ID: v.ID, Capacity: v.Capacity, Type: v.Type, Location: v.Location}
	}
	items := make([]promptDelivery, len(deliveries))
	for i, d := range deliveries {
		items[i] = promptDelivery{ID: d.ID, Weight: d.Weight, OrderID: d.OrderID, Address: d.Address, Priority: d.Priority}
	}

	vehiclesJSON, err := json.Marshal(vehicles)
	if err != nil {
		return Prompt{}, services.WrapError(services.ErrorTypePrompt, "failed to encode fleet", err)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return Prompt{}, services.WrapError(services.ErrorTypePrompt, "failed to encode deliveries", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Assign the %d deliveries below to the %d vehicles below.\n", len(items), len(vehicles))
	b.WriteString("Place as many deliveries as possible without exceeding any vehicle capacity (weights and capacities use the same unit).\n")
	b.WriteString("Deliveries that fit nowhere must be left out of the assignments.\n\n")
	b.WriteString(VehiclesHeader + "\n")
	b.Write(vehiclesJSON)
	b.WriteString("\n" + DeliveriesHeader + "\n")
	b.Write(itemsJSON)
	b.WriteString("\n\nReply with exactly this JSON shape and nothing else:\n")
	fmt.Fprintf(&b, `{"version":%q,"assignments":[{"deliveryId":"<delivery id>","vehicleId":"<vehicle id>"}]}`, GrammarVersion)
	b.WriteString("\n")

	return Prompt{System: systemPrompt, User: b.String()}, nil
}

func screen(deliveries []models.DeliveryItem, fleet []models.VehicleItem) error {
	for i, d := range deliveries {
		fields := map[string]string{"id": d.ID, "orderId": d.OrderID, "address": d.Address}
		for _, name := range []string{"id", "orderId", "address"} {
			if err := ScreenField(fmt.Sprintf("deliveries[%d].%s", i, name), fields[name]); err != nil {
				return err
			}
		}
	}
	for i, v := range fleet {
		fields := map[string]string{"id": v.ID, "type": v.Type, "location": v.Location}
		for _, name := range []string{"id", "type", "location"} {
			if err := ScreenField(fmt.Sprintf("fleet[%d].%s", i, name), fields[name]); err != nil {
				return err
			}
		}
	}
	return nil
}
