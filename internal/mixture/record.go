// Package mixture computes a proportional training-data mixture for a
// multilingual model from per-dataset token counts.
package mixture

// Record is one dataset entry from the token-count manifest.
type Record struct {
	Lang    string
	Dataset string
	Path    string
	Tokens  int64
}
