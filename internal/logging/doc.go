// Package logging provides slog helpers and a shared attribute vocabulary.
//
// All components log through log/slog. The helpers here keep attribute names
// consistent across the codebase and prevent PII from leaking into logs:
// user identifiers are hashed, tokens are reduced to a length indicator and
// email addresses can be reduced to their domain.
package logging
