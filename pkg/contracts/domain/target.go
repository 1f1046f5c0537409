package domain

// TargetTable maps a parameter name to its maximum-allowed value.
// A parameter without an entry resolves to 0 rather than "no target":
// the reference line on trend charts is always drawn.
type TargetTable map[string]float64

// Lookup returns the target for the parameter, defaulting to 0.
func (t TargetTable) Lookup(parameter string) float64 {
	if t == nil {
		return 0
	}
	return t[parameter]
}

// Parameters returns the parameter names that carry an explicit target,
// in unspecified order.
func (t TargetTable) Parameters() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}
