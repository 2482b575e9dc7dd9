package vehicle

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Sanitize maps a raw inference response onto a fully populated Profile.
// Every absent, null, empty or wrongly typed field receives its documented
// default, so renderers never observe partial data. Missing numbers become 0,
// missing strings become "N/A" or the field's named default.
func Sanitize(raw RawResponse, requestedVIN string) Profile {
	vin := stringOr(raw["vin"], requestedVIN)

	tech, _ := raw["technicalData"].(map[string]any)

	return Profile{
		VIN:       vin,
		Make:      stringOr(raw["make"], DefaultMake),
		Model:     stringOr(raw["model"], DefaultModel),
		Year:      intOrZero(raw["year"]),
		TrimLevel: stringOr(raw["trimLevel"], DefaultTrimLevel),
		BodyType:  stringOr(raw["bodyType"], DefaultBodyType),
		Summary:   stringOr(raw["summary"], "Decoded info for "+requestedVIN),
		TechnicalSpecs: TechnicalSpecs{
			EngineType:      stringOr(tech["engineType"], NotAvailable),
			Displacement:    stringOr(tech["displacement"], NotAvailable),
			Horsepower:      intOrZero(tech["horsepower"]),
			Kilowatts:       intOrZero(tech["kilowatts"]),
			Torque:          stringOr(tech["torque"], NotAvailable),
			FuelType:        stringOr(tech["fuelType"], DefaultFuelType),
			Transmission:    stringOr(tech["transmission"], DefaultTransmission),
			Drivetrain:      stringOr(tech["drivetrain"], DefaultDrivetrain),
			TopSpeed:        stringOr(tech["topSpeed"], NotAvailable),
			Acceleration:    stringOr(tech["acceleration"], NotAvailable),
			FuelConsumption: stringOr(tech["fuelConsumption"], NotAvailable),
			CO2Emissions:    stringOr(tech["co2Emissions"], NotAvailable),
		},
		StandardEquipment: categories(raw["standardEquipment"]),
		OptionalEquipment: categories(raw["optionalEquipment"]),
	}
}

// SanitizeProfile re-applies the defaults to an already typed profile, e.g. one
// posted back by a client. It round-trips through the raw shape so both entry
// points share one policy.
func SanitizeProfile(p Profile) Profile {
	data, err := json.Marshal(p)
	if err != nil {
		return Sanitize(nil, p.VIN)
	}
	var raw RawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return Sanitize(nil, p.VIN)
	}
	return Sanitize(raw, p.VIN)
}

func stringOr(v any, fallback string) string {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) != "" {
			return s
		}
	case json.Number:
		// A numeric zero counts as absent.
		if f, err := s.Float64(); err == nil && f == 0 {
			return fallback
		}
		return s.String()
	}
	return fallback
}

func intOrZero(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}

func categories(v any) []EquipmentCategory {
	list, ok := v.([]any)
	if !ok {
		return []EquipmentCategory{}
	}
	out := make([]EquipmentCategory, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label, _ := obj["category"].(string)
		out = append(out, EquipmentCategory{
			Category: label,
			Items:    items(obj["items"]),
		})
	}
	return out
}

func items(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// maxExactInt is the largest magnitude a float64 holds without losing integer
// precision. Anything beyond is nonsense for a year or a power figure.
const maxExactInt = 1 << 53

func floatToInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxExactInt {
		return 0
	}
	return int(math.Round(f))
}
