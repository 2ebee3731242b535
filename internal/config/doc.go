// Package config loads, validates, and normalizes tunescribe configuration
// from TOML. A Config is immutable after Load; components receive it by
// pointer at construction and never read ambient state.
package config
