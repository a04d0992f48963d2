package view

import "strconv"

// CounterPlaceholder is displayed before a counter has ever been set.
const CounterPlaceholder = "-"

// Counter is a header indicator holding the last value written to it.
type Counter struct {
	Label string
	value string
}

// NewCounter creates a counter showing the placeholder.
func NewCounter(label string) *Counter {
	return &Counter{Label: label}
}

// Set writes v verbatim; there is no clamping or formatting.
func (c *Counter) Set(v int) {
	c.value = strconv.Itoa(v)
}

// Text returns the displayed value.
func (c *Counter) Text() string {
	if c.value == "" {
		return CounterPlaceholder
	}
	return c.value
}

// IsSet reports whether a value has ever been written.
func (c *Counter) IsSet() bool {
	return c.value != ""
}
