// Package model holds the trained splicing classifier: feature transforms,
// decision forests, calibration and the bundle they are loaded from.
package model

import "sort"

// Features maps feature names to values. NaN marks a value that could not be
// computed; an absent name marks a feature that was never computed.
type Features map[string]float64

// Get returns the named value and whether it is present.
func (f Features) Get(name string) (float64, bool) {
	v, ok := f[name]
	return v, ok
}

// Clone returns a copy of the features.
func (f Features) Clone() Features {
	out := make(Features, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Names returns the feature names in sorted order.
func (f Features) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
