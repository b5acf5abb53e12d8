// Package google manages OAuth2 credentials for the Gmail API.
//
// The package owns the access-token lifecycle for a single scan: the Guard
// checks whether a delegated access token is still usable and refreshes it
// through the Google OAuth endpoint when it is expired or absent. Refresh
// failures are terminal for the scan and surface as ErrAuthExpired so the
// caller knows the user has to run through the consent flow again.
//
// Storing the refreshed token durably is the caller's responsibility; this
// package only returns the new token. For CLI usage a small cache-file helper
// is provided (~/.cache/renewly/).
package google
