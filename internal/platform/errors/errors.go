package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig    Kind = "config"
	KindStorage   Kind = "storage"
	KindTransport Kind = "transport"
	KindPlatform  Kind = "platform"
	KindBootstrap Kind = "bootstrap"
	KindMedia     Kind = "media"
	KindUnknown   Kind = "unknown"

	// Pipeline failure taxonomy. These kinds classify how a transcription
	// run failed so callers can branch without string matching.
	KindContentUnavailable Kind = "content_unavailable"
	KindSplitFailed        Kind = "split_failed"
	KindAllSegmentsFailed  Kind = "all_segments_failed"
	KindAlreadyProcessing  Kind = "already_processing"
	KindProviderTimeout    Kind = "provider_timeout"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// KindOf returns the kind of the first typed error in the chain,
// or KindUnknown when the error carries no classification.
func KindOf(err error) Kind {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}

// UserMessage maps an error to a short message safe to show callers.
// Internal detail stays in logs.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindContentUnavailable:
		return "the requested content could not be fetched"
	case KindSplitFailed:
		return "the audio could not be prepared for transcription"
	case KindAllSegmentsFailed:
		return "transcription failed for the entire recording"
	case KindAlreadyProcessing:
		return "this content is already being processed, try again shortly"
	case KindProviderTimeout:
		return "the transcription service timed out"
	default:
		return "transcription failed due to an internal error"
	}
}
