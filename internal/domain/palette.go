package domain

// Palette is the six-swatch color profile derived from a cover image.
// Every field is optional: extraction may fail to find a swatch for a band,
// or fail entirely, in which case all fields stay absent.
type Palette struct {
	Vibrant      *string `bson:"vibrant,omitempty" json:"vibrant,omitempty"`
	DarkVibrant  *string `bson:"dark_vibrant,omitempty" json:"dark_vibrant,omitempty"`
	LightVibrant *string `bson:"light_vibrant,omitempty" json:"light_vibrant,omitempty"`
	Muted        *string `bson:"muted,omitempty" json:"muted,omitempty"`
	DarkMuted    *string `bson:"dark_muted,omitempty" json:"dark_muted,omitempty"`
	LightMuted   *string `bson:"light_muted,omitempty" json:"light_muted,omitempty"`
}

// IsEmpty reports whether no swatch was extracted at all.
func (p Palette) IsEmpty() bool {
	return p.Vibrant == nil && p.DarkVibrant == nil && p.LightVibrant == nil &&
		p.Muted == nil && p.DarkMuted == nil && p.LightMuted == nil
}
