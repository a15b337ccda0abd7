package version

// AppVersion is the adwatch release version. Overridden at build time via
// -ldflags "-X adwatch/version.AppVersion=...".
var AppVersion = "0.3.0"
