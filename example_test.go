package mirror

import "fmt"

// thermostat stands in for a type the examples do not control: unexported
// fields, no accessors.
type thermostat struct {
	celsius float64
	locked  bool
}

func (th *thermostat) Lock() { th.locked = true }

func newThermostat(celsius float64) *thermostat {
	return &thermostat{celsius: celsius}
}

func ExampleAttach() {
	type thermostatMirror struct {
		Of[*thermostat]

		GetCelsius func() float64                  `mirror:"field"`
		SetCelsius func(float64) *thermostatMirror `mirror:"field"`
		Lock       func()
	}

	m, err := Attach[thermostatMirror](&thermostat{celsius: 19.5})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	m.SetCelsius(21).Lock()
	fmt.Printf("celsius=%v locked=%v", m.GetCelsius(), m.Instance().locked)

	// Output: celsius=21 locked=true
}

func ExampleAttachStatic() {
	reg := NewRegistry()
	if err := reg.RegisterFunc(&thermostat{}, "NewThermostat", newThermostat); err != nil {
		fmt.Println("error:", err)
		return
	}

	type thermostatFactory struct {
		Of[*thermostat]

		New func(float64) *thermostat `mirror:"constructor,name=NewThermostat"`
	}

	f, err := AttachStatic[thermostatFactory](WithRegistry(reg))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("celsius=%v", f.New(18).celsius)

	// Output: celsius=18
}

func ExampleUpgrade() {
	type reading struct {
		value float64
	}
	type tracedReading struct {
		reading
		source string
	}

	r, err := Upgrade[tracedReading](&reading{value: 3.5})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	r.source = "sensor"

	fmt.Printf("value=%v source=%s", r.value, r.source)

	// Output: value=3.5 source=sensor
}
