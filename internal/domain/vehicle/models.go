package vehicle

import "fmt"

// Default values substituted by Sanitize when the inference response omits a field.
const (
	NotAvailable        = "N/A"
	DefaultMake         = "Unknown Make"
	DefaultModel        = "Unknown Model"
	DefaultTrimLevel    = "Standard"
	DefaultBodyType     = "Sedan"
	DefaultFuelType     = "Petrol"
	DefaultTransmission = "Manual"
	DefaultDrivetrain   = "FWD"
)

// RawResponse is the loosely-typed JSON tree returned by the inference collaborator.
type RawResponse map[string]any

type TechnicalSpecs struct {
	EngineType      string `json:"engineType"`
	Displacement    string `json:"displacement"`
	Horsepower      int    `json:"horsepower"`
	Kilowatts       int    `json:"kilowatts"`
	Torque          string `json:"torque"`
	FuelType        string `json:"fuelType"`
	Transmission    string `json:"transmission"`
	Drivetrain      string `json:"drivetrain"`
	TopSpeed        string `json:"topSpeed"`
	Acceleration    string `json:"acceleration"`
	FuelConsumption string `json:"fuelConsumption"`
	CO2Emissions    string `json:"co2Emissions"`
}

type EquipmentCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Profile is one decoded vehicle. Consumers treat it as read-only; use Clone
// to obtain a copy that can be modified independently.
type Profile struct {
	VIN               string              `json:"vin"`
	Make              string              `json:"make"`
	Model             string              `json:"model"`
	Year              int                 `json:"year"`
	TrimLevel         string              `json:"trimLevel"`
	BodyType          string              `json:"bodyType"`
	Summary           string              `json:"summary"`
	TechnicalSpecs    TechnicalSpecs      `json:"technicalData"`
	StandardEquipment []EquipmentCategory `json:"standardEquipment"`
	OptionalEquipment []EquipmentCategory `json:"optionalEquipment"`
}

// DisplayName is the title line used by every rendering.
func (p Profile) DisplayName() string {
	switch {
	case p.Make == "":
		return p.Model
	case p.Model == "":
		return p.Make
	default:
		return p.Make + " " + p.Model
	}
}

// PowerLine formats horsepower and kilowatts the way reports print them.
func (t TechnicalSpecs) PowerLine() string {
	return formatPower(t.Horsepower, t.Kilowatts)
}

func (p Profile) Clone() Profile {
	out := p
	out.StandardEquipment = cloneCategories(p.StandardEquipment)
	out.OptionalEquipment = cloneCategories(p.OptionalEquipment)
	return out
}

func cloneCategories(in []EquipmentCategory) []EquipmentCategory {
	if in == nil {
		return nil
	}
	out := make([]EquipmentCategory, len(in))
	for i, c := range in {
		out[i] = EquipmentCategory{Category: c.Category}
		if c.Items != nil {
			out[i].Items = make([]string, len(c.Items))
			copy(out[i].Items, c.Items)
		}
	}
	return out
}

func formatPower(hp, kw int) string {
	return fmt.Sprintf("%d PS (%d kW)", hp, kw)
}
