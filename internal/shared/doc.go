// Package shared holds helpers used by more than one layer of the dashboard.
//
// The testutil subpackage provides a capturing slog handler and flight log
// fixtures so service, transport and app tests exercise the same sample
// sheet without each package redefining it.
package shared
