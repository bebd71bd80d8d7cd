package profiles

// Volume is the printable volume of a profile, millimeters.
type Volume struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
	Origin string  `json:"origin,omitempty"`
}

// Profile describes one emulated printer.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	Volume    Volume `json:"volume"`
	Extruders int    `json:"extruders"`
	HeatedBed bool   `json:"heated_bed"`
	// FeedRate overrides the configured default feed rate, mm/min.
	FeedRate float64 `json:"feed_rate,omitempty"`
}

// Default is the profile used when none is configured: a generic
// 220x220x250 single-extruder machine.
func Default() *Profile {
	return &Profile{
		ID:        "default",
		Name:      "Generic FDM Printer",
		Model:     "generic",
		Volume:    Volume{Width: 220, Depth: 220, Height: 250, Origin: "lowerleft"},
		Extruders: 1,
		HeatedBed: true,
	}
}
