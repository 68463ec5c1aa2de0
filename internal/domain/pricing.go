package domain

// PricingConfig is the active fare configuration for a (region, tier)
// pair. The Ride Engine only reads it; nothing in the core mutates it.
type PricingConfig struct {
	ID         string
	Region     string
	Tier       RideTier
	BaseFare   float64
	PerKmRate  float64
	PerMinRate float64
	Active     bool
}

// SurgeZone is an opaque polygon with a current multiplier. Per the
// design notes, the core deliberately does not test whether a pickup
// point lies within the polygon — it looks up any active zone and
// applies its multiplier, defaulting to 1.0 when none is active. This
// is a preserved simplification, not an oversight.
type SurgeZone struct {
	ID         string
	Region     string
	Polygon    string // opaque, never geometrically tested
	Multiplier float64
	Active     bool
}
