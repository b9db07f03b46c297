package port

import "context"

// VisionPhoto is one photo handed to a recognition provider.
type VisionPhoto struct {
	FileName    string
	ContentType string
	Date        string
	FileBytes   []byte
}

// Observation is what the vision model reports for one photo. Field
// names follow the JSON keys the prompt demands.
type Observation struct {
	FileName         string `json:"fileName"`
	HasBoard         bool   `json:"hasBoard"`
	DetectedText     string `json:"detectedText"`
	Measurements     string `json:"measurements"`
	SceneDescription string `json:"sceneDescription"`
	PhotoCategory    string `json:"photoCategory"`
}

// VisionHints carries master-derived vocabulary the recognition
// prompt folds in. The zero value adds nothing to the prompt.
type VisionHints struct {
	// WorkTypeTree maps work type to variety to subphases of the
	// resolved hierarchy master.
	WorkTypeTree map[string]map[string][]string
}

// PhotoRecognizer abstracts LLM-based photo recognition. One call
// covers a whole batch so the model classifies related photos
// consistently.
type PhotoRecognizer interface {
	Recognize(ctx context.Context, photos []VisionPhoto, hints VisionHints) ([]Observation, error)
}
