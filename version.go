package anemoscope

// Version is the semantic version of the anemoscope module.
const Version = "0.1.0"
