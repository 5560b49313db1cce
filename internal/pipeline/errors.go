// Package pipeline holds the error taxonomy and callback contracts shared by
// the acquisition, extraction and job layers. Classification made at the
// bottom of the stack (a policy block inside the model call) must survive
// every wrapping layer, so the types live here rather than in any one stage.
package pipeline

import (
	"errors"
	"fmt"
)

// ValidationError reports bad or missing input. It is returned synchronously;
// no job is created.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AcquisitionError reports an unreachable or failing content source.
// Unavailable distinguishes "service not reachable" from a content error.
type AcquisitionError struct {
	Message     string
	Unavailable bool
	Err         error
}

func (e *AcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// ExtractionError reports a model or parse failure. RawOutput keeps the model
// response for diagnostics only; it is never surfaced to the end user.
type ExtractionError struct {
	Message   string
	RawOutput string
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PolicyBlockError reports a vendor-side content-policy refusal (recitation
// or safety block). Its message is the user-facing remediation text, not the
// raw vendor error.
type PolicyBlockError struct {
	Reason string
}

func (e *PolicyBlockError) Error() string {
	return "Le contenu de la recette semble être protégé par le droit d'auteur. " +
		"Essayez de reformuler manuellement les instructions ou utilisez une autre source."
}

// IsPolicyBlock reports whether err wraps a content-policy refusal.
func IsPolicyBlock(err error) bool {
	var blocked *PolicyBlockError
	return errors.As(err, &blocked)
}

// Domain errors for the retry operation.
var (
	ErrNotInErrorState = errors.New("cette recette n'est pas en erreur")
	ErrNoSourceURL     = errors.New("aucune URL source disponible pour réessayer")
	ErrJobInFlight     = errors.New("un traitement est déjà en cours pour cette recette")
)

// ProgressFunc receives human-readable stage descriptions. Implementations
// must never fail into the caller's control flow: persistence problems are
// swallowed and logged by the orchestrator.
type ProgressFunc func(message string)
