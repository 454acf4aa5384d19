package controller

// Store keys. Values are JSON.
const (
	// KeyEnabled holds the run flag as a JSON bool.
	KeyEnabled = "isAutoScanEnabled"

	// KeyItems holds the collection as a JSON array of strings.
	KeyItems = "collectedItems"

	// KeyRules holds the rule list as a JSON array of rules.
	KeyRules = "autoScanRules"
)
