// Package progress provides in-process fan-out of document processing
// progress, used by workers to report page-by-page state and by the API's
// streaming endpoint to relay it to clients.
package progress
