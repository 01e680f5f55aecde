package power

import "testing"

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantOK  bool
	}{
		{name: "decimal with unit", payload: "12.5 A", want: 12.5, wantOK: true},
		{name: "integer with unit", payload: "4500 W", want: 4500, wantOK: true},
		{name: "bare integer", payload: "3", want: 3, wantOK: true},
		{name: "meter output", payload: "12374148.4 Wh", want: 12374148.4, wantOK: true},
		{name: "leading text", payload: "power: 163.5W", want: 163.5, wantOK: true},
		{name: "first number wins", payload: "1.5 then 2.5", want: 1.5, wantOK: true},
		{name: "sign is ignored", payload: "-7.25", want: 7.25, wantOK: true},
		{name: "exponent is not parsed", payload: "1e5", want: 1, wantOK: true},
		{name: "trailing dot", payload: "42.", want: 42, wantOK: true},
		{name: "leading dot", payload: ".5", want: 5, wantOK: true},
		{name: "json payload", payload: `{"value": 230.1}`, want: 230.1, wantOK: true},
		{name: "no numbers", payload: "no numbers here", wantOK: false},
		{name: "empty", payload: "", wantOK: false},
		{name: "overflow", payload: "1" + repeat("9", 400), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseValue([]byte(tt.payload))
			if ok != tt.wantOK {
				t.Fatalf("ParseValue(%q) ok = %v, want %v", tt.payload, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseValue(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		value     float64
		wantField Field
		wantValue float64
	}{
		{name: "current is raw", topic: "resources/power/dev1/current", value: 12.5, wantField: FieldCurrent, wantValue: 12.5},
		{name: "total divided", topic: "resources/power/dev1/total", value: 4500, wantField: FieldTotal, wantValue: 4.5},
		{name: "total rounded", topic: "resources/power/total", value: 12374148.4, wantField: FieldTotal, wantValue: 12374.148},
		{name: "total rounds up", topic: "resources/power/total", value: 1234.5678, wantField: FieldTotal, wantValue: 1.235},
		{name: "total decimal tie below half", topic: "resources/power/total", value: 1234.5, wantField: FieldTotal, wantValue: 1.234},
		{name: "total tie rounds to 1", topic: "resources/power/total", value: 1000.5, wantField: FieldTotal, wantValue: 1.0},
		{name: "total large tie", topic: "resources/power/total", value: 12374140.5, wantField: FieldTotal, wantValue: 12374.14},
		{name: "current substring anywhere", topic: "resources/power/currentmeter/x", value: 9, wantField: FieldCurrent, wantValue: 9},
		{name: "other topic is total", topic: "resources/power/dev1/power-total", value: 999, wantField: FieldTotal, wantValue: 0.999},
		{name: "case sensitive", topic: "resources/power/Current", value: 2000, wantField: FieldTotal, wantValue: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.topic, tt.value)
			if p.Measurement != Measurement {
				t.Errorf("Measurement = %q, want %q", p.Measurement, Measurement)
			}
			if p.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", p.Field, tt.wantField)
			}
			if p.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", p.Value, tt.wantValue)
			}
		})
	}
}

func TestFromMessage_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    *Point
	}{
		{
			name:    "A current decimal",
			topic:   "resources/power/dev1/current",
			payload: "12.5 A",
			want:    &Point{Measurement: "power", Field: FieldCurrent, Value: 12.5},
		},
		{
			name:    "B total integer",
			topic:   "resources/power/dev1/total",
			payload: "4500 W",
			want:    &Point{Measurement: "power", Field: FieldTotal, Value: 4.5},
		},
		{
			name:    "C no number",
			topic:   "resources/power/dev1/total",
			payload: "no numbers here",
			want:    nil,
		},
		{
			name:    "D current integer",
			topic:   "resources/power/dev1/current",
			payload: "3",
			want:    &Point{Measurement: "power", Field: FieldCurrent, Value: 3.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromMessage(tt.topic, []byte(tt.payload))
			if tt.want == nil {
				if ok {
					t.Errorf("FromMessage() = %+v, want no point", got)
				}
				return
			}
			if !ok {
				t.Fatalf("FromMessage() returned no point, want %+v", *tt.want)
			}
			if got != *tt.want {
				t.Errorf("FromMessage() = %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestPoint_FieldsHasExactlyOneEntry(t *testing.T) {
	for _, topic := range []string{"resources/power/current", "resources/power/total"} {
		p, ok := FromMessage(topic, []byte("100"))
		if !ok {
			t.Fatalf("FromMessage(%q) returned no point", topic)
		}

		fields := p.Fields()
		if len(fields) != 1 {
			t.Fatalf("Fields() has %d entries, want 1", len(fields))
		}
		if _, ok := fields[string(p.Field)]; !ok {
			t.Errorf("Fields() = %v, missing %q", fields, p.Field)
		}

		other := FieldTotal
		if p.Field == FieldTotal {
			other = FieldCurrent
		}
		if _, ok := fields[string(other)]; ok {
			t.Errorf("Fields() = %v, must not carry %q", fields, other)
		}
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
