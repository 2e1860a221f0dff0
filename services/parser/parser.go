// Package parser decodes model replies written in the route-assignment
// grammar into an assignment result.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
	"github.com/upb/route-optimizer/services/heuristic"
	"github.com/upb/route-optimizer/services/prompt"
)

// Reply is the decoded form of a route-assignment/v1 answer
type Reply struct {
	Version     string       `json:"version"`
	Assignments []Assignment `json:"assignments"`
}

// Assignment places one delivery on one vehicle
type Assignment struct {
	DeliveryID string `json:"deliveryId"`
	VehicleID  string `json:"vehicleId"`
}

// Decode reads exactly one reply object from raw. A single surrounding
// markdown code fence is tolerated, any other text is not.
func Decode(raw string) (*Reply, error) {
	body, err := unfence(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var reply Reply
	if err := dec.Decode(&reply); err != nil {
		return nil, services.WrapError(services.ErrorTypeParse, "reply is not a route assignment object", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, services.NewParseError("reply has trailing data after the JSON object")
	}
	// encoding/json folds key case and keeps the last duplicate
	if err := checkKeys(body); err != nil {
		return nil, err
	}

	if reply.Version != prompt.GrammarVersion {
		return nil, services.NewParseError("unsupported reply version %q", reply.Version)
	}
	if reply.Assignments == nil {
		return nil, services.NewParseError("reply is missing assignments")
	}
	for i, a := range reply.Assignments {
		if a.DeliveryID == "" || a.VehicleID == "" {
			return nil, services.NewParseError("assignment %d has an empty id", i)
		}
	}
	return &reply, nil
}

// grammarKeys lists the exact keys allowed in each object scope
var grammarKeys = map[string][]string{
	scopeReply:      {"version", "assignments"},
	scopeAssignment: {"deliveryId", "vehicleId"},
}

const (
	scopeReply       = "reply"
	scopeAssignments = "assignments"
	scopeAssignment  = "assignment"
)

// checkKeys walks body token by token and rejects repeated keys and keys
// not spelled exactly as the grammar names them.
func checkKeys(body string) error {
	dec := json.NewDecoder(strings.NewReader(body))
	return walkValue(dec, scopeReply)
}

func walkValue(dec *json.Decoder, scope string) error {
	tok, err := dec.Token()
	if err != nil {
		return services.WrapError(services.ErrorTypeParse, "reply is not valid JSON", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '[':
		child := ""
		if scope == scopeAssignments {
			child = scopeAssignment
		}
		for dec.More() {
			if err := walkValue(dec, child); err != nil {
				return err
			}
		}
	case '{':
		seen := make(map[string]bool)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return services.WrapError(services.ErrorTypeParse, "reply is not valid JSON", err)
			}
			key, _ := tok.(string)
			if seen[key] {
				return services.NewParseError("reply repeats key %q", key)
			}
			seen[key] = true
			if err := checkSpelling(scope, key); err != nil {
				return err
			}

			child := ""
			if scope == scopeReply && key == "assignments" {
				child = scopeAssignments
			}
			if err := walkValue(dec, child); err != nil {
				return err
			}
		}
	}

	// closing delimiter
	if _, err := dec.Token(); err != nil {
		return services.WrapError(services.ErrorTypeParse, "reply is not valid JSON", err)
	}
	return nil
}

func checkSpelling(scope, key string) error {
	allowed, ok := grammarKeys[scope]
	if !ok {
		return nil
	}
	for _, want := range allowed {
		if key == want {
			return nil
		}
		if strings.EqualFold(key, want) {
			return services.NewParseError("reply key %q must be spelled %q", key, want)
		}
	}
	return services.NewParseError("reply has unknown key %q", key)
}

// unfence strips one optional ```json ... ``` wrapper
func unfence(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", services.NewParseError("reply is empty")
	}
	if !strings.HasPrefix(s, "```") {
		return s, nil
	}

	newline := strings.IndexByte(s, '\n')
	if newline < 0 || !strings.HasSuffix(s, "```") || len(s) < newline+4 {
		return "", services.NewParseError("reply has an unterminated code fence")
	}
	if lang := strings.TrimSpace(s[3:newline]); lang != "" && !strings.EqualFold(lang, "json") {
		return "", services.NewParseError("reply fence has unexpected language %q", lang)
	}
	inner := strings.TrimSpace(s[newline+1 : len(s)-3])
	if strings.Contains(inner, "```") {
		return "", services.NewParseError("reply contains more than one code fence")
	}
	return inner, nil
}

// Parse decodes raw and turns it into routes over the given input.
// Routes follow fleet input order with stops in reply order; unassigned
// deliveries keep input order. Method fields are left for the caller.
func Parse(raw string, deliveries []models.DeliveryItem, fleet []models.VehicleItem) (models.OptimizationResult, error) {
	reply, err := Decode(raw)
	if err != nil {
		return models.OptimizationResult{}, err
	}
	return Apply(reply, deliveries, fleet)
}

// Apply checks a decoded reply against the input and builds the result
func Apply(reply *Reply, deliveries []models.DeliveryItem, fleet []models.VehicleItem) (models.OptimizationResult, error) {
	byDelivery := make(map[string]models.DeliveryItem, len(deliveries))
	for _, d := range deliveries {
		byDelivery[d.ID] = d
	}
	vehicleIndex := make(map[string]int, len(fleet))
	for i, v := range fleet {
		vehicleIndex[v.ID] = i
	}

	stops := make([][]models.DeliveryItem, len(fleet))
	assigned := make(map[string]string, len(reply.Assignments))
	for _, a := range reply.Assignments {
		d, ok := byDelivery[a.DeliveryID]
		if !ok {
			return models.OptimizationResult{}, services.NewParseError("unknown delivery id %q", a.DeliveryID)
		}
		idx, ok := vehicleIndex[a.VehicleID]
		if !ok {
			return models.OptimizationResult{}, services.NewParseError("unknown vehicle id %q", a.VehicleID)
		}
		if prev, dup := assigned[a.DeliveryID]; dup {
			return models.OptimizationResult{}, services.NewParseError(
				"delivery %q assigned more than once (%q and %q)", a.DeliveryID, prev, a.VehicleID)
		}
		assigned[a.DeliveryID] = a.VehicleID
		stops[idx] = append(stops[idx], d)
	}

	routes := make([]models.OptimizedRoute, 0, len(fleet))
	for i, v := range fleet {
		if len(stops[i]) == 0 {
			continue
		}
		total := models.TotalWeight(stops[i])
		if total > v.Capacity {
			return models.OptimizationResult{}, services.NewInvariantError(
				"vehicle %q loaded with %g over capacity %g", v.ID, total, v.Capacity).
				WithDetail("vehicle_id", v.ID)
		}
		routes = append(routes, models.OptimizedRoute{
			RouteID:     heuristic.RouteID(len(routes) + 1),
			VehicleID:   v.ID,
			Stops:       stops[i],
			TotalWeight: total,
		})
	}

	unassigned := make([]models.DeliveryItem, 0, len(deliveries)-len(assigned))
	for _, d := range deliveries {
		if _, ok := assigned[d.ID]; !ok {
			unassigned = append(unassigned, d)
		}
	}

	return models.OptimizationResult{
		OptimizedRoutes:      routes,
		UnassignedDeliveries: unassigned,
		Message:              fmt.Sprintf("Model assigned %d deliveries to %d routes", len(assigned), len(routes)),
	}, nil
}

