// Package file loads the application configuration from a TOML file into
// a typed struct, built once at process start and passed into component
// constructors. Components never read ambient configuration themselves.
//
// Secrets (API keys) come from the environment, optionally via a .env
// file, and are resolved here so the rest of the code only ever sees
// explicit values.
package file
