// Package project models a managed project directory: its declared
// capabilities, detected toolchains, and a weighted health score derived
// from repository cleanliness and project hygiene signals.
package project
