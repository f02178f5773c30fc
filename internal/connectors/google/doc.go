// Package google provides shared infrastructure for the Google Drive
// connector:
//   - A persisting token source that reads and refreshes the authorised-user
//     token file (token_drive.json) produced by the external setup step
//   - Service factories for creating Google API clients
//   - Error handling for common Google API errors (401, 403, 404, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts, err := google.NewFileTokenSource(ctx, tokenPath)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// The Drive connector only needs
// https://www.googleapis.com/auth/drive.readonly.
package google
