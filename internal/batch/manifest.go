package batch

import (
	"encoding/json"
	"os"
)

// Manifest describes one rendered action.
type Manifest struct {
	Model  string          `json:"model"`
	Action int             `json:"action"`
	Method string          `json:"method"`
	Frames []ManifestFrame `json:"frames"`
}

// ManifestFrame represents one successfully written frame.
type ManifestFrame struct {
	Frame int     `json:"frame"`
	Time  float64 `json:"time"`
	Image string  `json:"image"`
}

// WriteManifest writes the manifest of the successful results to path.
func WriteManifest(path, model string, action int, method string, results []Result) error {
	m := Manifest{Model: model, Action: action, Method: method, Frames: []ManifestFrame{}}
	for _, r := range results {
		if r.Success {
			m.Frames = append(m.Frames, ManifestFrame{Frame: r.Frame, Time: r.Time, Image: r.Image})
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
