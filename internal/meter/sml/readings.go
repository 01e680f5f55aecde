package sml

import "fmt"

// Reading is one scaled meter value.
type Reading struct {
	Value float64
	Unit  string
}

// Format renders the reading as published on the bus: "163.5 W", or
// "163.5" when the unit is unknown.
func (r Reading) Format() string {
	if r.Unit == "" {
		return fmt.Sprintf("%.1f", r.Value)
	}
	return fmt.Sprintf("%.1f %s", r.Value, r.Unit)
}

// Readings holds the power values found in one SML file.
// A nil field means the file did not contain that value.
type Readings struct {
	Current *Reading
	Total   *Reading
}

// ExtractReadings scans the GetList.Res messages for current power (16.7.0)
// and total energy (1.8.0). Entries without an integer value are ignored.
// If a value appears more than once the last one wins.
func ExtractReadings(msgs []Message) (Readings, error) {
	var out Readings

	for _, msg := range msgs {
		entries, err := msg.Entries()
		if err != nil {
			return out, err
		}

		for _, e := range entries {
			var target **Reading
			switch e.Name.Short() {
			case OBISTotalEnergy:
				target = &out.Total
			case OBISCurrentPower:
				target = &out.Current
			default:
				continue
			}

			v, ok := e.Float()
			if !ok {
				continue
			}
			*target = &Reading{Value: v, Unit: e.Unit.Symbol()}
		}
	}

	return out, nil
}
