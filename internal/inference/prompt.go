package inference

import (
	"fmt"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `Role: Expert Automotive Product Manager & VIN Decoder.
Task: Decode the VIN and generate a COMPLETE, CATALOG-STYLE FACTORY BUILD SHEET.

VIN: %s

CRITICAL INSTRUCTIONS:

1. VIN & Generation Check (Digit 10):
   - Analyze the 10th digit to identify the exact Model Year.
   - Ensure the Model Generation matches that year (e.g. Opel Corsa D vs E vs F).
   - VIN Year Codes: A=2010, B=2011, C=2012, D=2013... L=2020, M=2021, N=2022, P=2023.

2. COMPREHENSIVE STANDARD EQUIPMENT (MAIN PRIORITY):
   - Do not summarize. List EVERY SINGLE STANDARD FEATURE available for this specific Trim Level.
   - Be granular: instead of "Airbags", write "Driver & Passenger Airbags, Side Airbags, Curtain Airbags".
   - Populate the following categories with at least 4-8 items each if applicable:
     - "Safety & Security" (ABS, ESP, Airbags, Isofix, TPMS...)
     - "Interior & Comfort" (Seats, Climate, Steering wheel, Storage...)
     - "Infotainment & Electronics" (Radio, Speakers, Connectivity, Display...)
     - "Exterior & Lighting" (Wheels, Headlights, Mirrors, Bumpers...)
     - "Mechanics & Performance" (Brakes, Suspension, Steering...)

3. Technical Data:
   - Use factory specifications for the exact engine found in this VIN.

4. Optional Equipment:
   - List common option packages that are popular for this specific model (e.g. "Winter Package").

Output Schema: JSON only.`

func buildPrompt(vin string) string {
	return fmt.Sprintf(promptTemplate, vin)
}

func equipmentSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {Type: genai.TypeString},
				"items": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
		},
	}
}

// responseSchema mirrors vehicle.Profile's JSON shape.
func responseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	integer := func() *genai.Schema { return &genai.Schema{Type: genai.TypeInteger} }

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"vin":       str(),
			"make":      str(),
			"model":     {Type: genai.TypeString, Description: "Full Model Name with Generation (e.g. Opel Corsa D 1.4)"},
			"year":      integer(),
			"trimLevel": {Type: genai.TypeString, Description: "Trim Line (e.g. Innovation, Satellite, GS Line)"},
			"bodyType":  str(),
			"summary":   str(),
			"technicalData": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"engineType":      str(),
					"displacement":    str(),
					"horsepower":      integer(),
					"kilowatts":       integer(),
					"torque":          str(),
					"fuelType":        str(),
					"transmission":    str(),
					"drivetrain":      str(),
					"topSpeed":        str(),
					"acceleration":    str(),
					"fuelConsumption": str(),
					"co2Emissions":    str(),
				},
			},
			"standardEquipment": equipmentSchema(),
			"optionalEquipment": equipmentSchema(),
		},
	}
}
