// Package services wires the topics engine to the driven ports and exposes
// it through the driving port interfaces. Nothing here imports an adapter.
package services
