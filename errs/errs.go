// Package errs holds the sentinel error kinds surfaced across component
// boundaries (spec.md §7). Components wrap these with fmt.Errorf("...: %w")
// so callers can still branch with errors.Is/errors.As while getting a
// human-readable message with component context.
package errs

import "errors"

var (
	// ErrValidation means the caller's input violated a documented
	// invariant (grade range, answer count, etc). Surfaced 1:1.
	ErrValidation = errors.New("validation error")

	// ErrQuizNotFound, ErrSubmissionNotFound, ErrQuestionNotFound mean an
	// aggregate referenced by identity does not exist.
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrQuestionNotFound   = errors.New("question not found")

	// ErrQuizDataInvalid means stored data breaks an invariant the core
	// assumes holds (e.g. a question missing CorrectAnswer). Non-retryable.
	ErrQuizDataInvalid = errors.New("quiz data invalid")

	// ErrDuplicateAttempt is returned by a SubmissionStore when the
	// (userId, quizId, attemptNumber) uniqueness constraint is violated by
	// a racing write. The orchestrator retries transparently.
	ErrDuplicateAttempt = errors.New("duplicate attempt")

	// ErrProviderExhausted means both the primary and fallback AI providers
	// failed the call itself (timeout, transport error, or empty text). A
	// response that arrives but cannot be parsed does not fail over: the
	// gateway returns its internal parse error, wrapped, instead of this one.
	ErrProviderExhausted = errors.New("AI services unavailable; please try again later")

	// ErrProjectorConflict is an optimistic-concurrency loss on
	// PerformanceHistory. Retried up to 3 times, then logged and dropped.
	ErrProjectorConflict = errors.New("performance projector conflict")
)
