package archive

import (
	"errors"
	"fmt"
)

// ErrNotContainer is returned when input is neither a zip container nor a cad archive.
var ErrNotContainer = errors.New("not a zip container or cad archive")

// ErrMissingManifest is returned when an extracted workspace lacks the document manifest.
var ErrMissingManifest = errors.New("document manifest not found in workspace")

// ErrUnknownCodec is returned for codec names this build does not carry.
var ErrUnknownCodec = errors.New("unknown archive codec")

// Pipeline stage names used in errors and stage callbacks.
const (
	StageExtracting = "extracting"
	StagePacking    = "packing"
	StageRebuilding = "rebuilding"
)

// OpError is a stage-aware error produced by pipeline operations.
type OpError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats pipeline failures for logs and UI.
func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
