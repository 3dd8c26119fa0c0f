// Package domain contains the shared types used across the attendance
// platform: provider configurations, normalized messages and send results,
// access codes, and notification campaigns. These types carry no behavior
// beyond validation and derived fields; all I/O lives in the repository and
// provider packages.
package domain
