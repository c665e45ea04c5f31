package flow

//go:generate go tool go-enum --marshal --names

// Step of a single import run. Done, Aborted and Failed are terminal.
// ENUM(awaiting-location, fetching-candidates, awaiting-selection, substituting, delegating, done, aborted, failed)
type State int

// Category of a run failure.
// ENUM(invalid-argument, operation-aborted, operation-failure)
type Kind int

// Tells whether user canceled before anything was committed to (location
// prompt) or after candidates were already fetched (selection dialog).
// ENUM(none, before-commit, after-commit)
type AbortPhase int
