package domain

// Settings holds owner-level preferences that affect reporting.
type Settings struct {
	OwnerID string
	// AutoCalculateProfit derives profit from prices when true; when false the
	// trade's ManualProfit is reported verbatim.
	AutoCalculateProfit bool
}

// DefaultSettings returns the settings used for an owner with no stored row.
func DefaultSettings(ownerID string, autoCalculate bool) Settings {
	return Settings{OwnerID: ownerID, AutoCalculateProfit: autoCalculate}
}
