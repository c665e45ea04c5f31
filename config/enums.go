package config

//go:generate go tool go-enum --marshal --names

// Order in which candidate labels are offered for selection.
// ENUM(document, natural)
type LabelOrder int
