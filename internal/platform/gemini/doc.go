// Package gemini implements the generation interfaces against the Google
// Gemini API.
package gemini
