// Package errs classifies pipeline failures.
//
// Every failure the bot reports is an *Error carrying a Kind:
//   - KindConfig: a required setting is missing or invalid (fatal at start-up)
//   - KindFetch: the job API could not be reached or answered non-2xx (aborts the run)
//   - KindTranslation: the translation provider failed (recovered by the publisher)
//   - KindDelivery: the Bot API rejected or failed the message (recovered by the publisher)
//   - KindUnexpected: anything else, including recovered panics
//
// Match a kind with errors.Is(err, errs.ErrFetch) or switch on KindOf(err).
package errs
