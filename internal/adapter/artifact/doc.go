// Package artifact serves the pre-built files the dashboard ships with: the
// rendered hotspot map and the trained classifier artifacts.
package artifact
