package transcode

import "fmt"

// Quality is one rung of the rendition ladder.
type Quality struct {
	Name          string
	Width         int
	Height        int
	VideoBitrateK int
	AudioBitrateK int
}

// FileName is the rendition's object name, e.g. "_720p.mp4".
func (q Quality) FileName() string {
	return fmt.Sprintf("_%dp.mp4", q.Height)
}

// Ladder lists every rung in ascending height.
var Ladder = []Quality{
	{Name: "480", Width: 842, Height: 480, VideoBitrateK: 1400, AudioBitrateK: 128},
	{Name: "720", Width: 1280, Height: 720, VideoBitrateK: 2800, AudioBitrateK: 160},
	{Name: "1080", Width: 1920, Height: 1080, VideoBitrateK: 5000, AudioBitrateK: 192},
}

// SelectQualities returns the rungs whose height does not exceed the source
// height, in ascending order. Sources shorter than the lowest rung get none.
func SelectQualities(sourceHeight int) []Quality {
	selected := make([]Quality, 0, len(Ladder))
	for _, q := range Ladder {
		if sourceHeight >= q.Height {
			selected = append(selected, q)
		}
	}
	return selected
}

// Names returns the quality names in order.
func Names(qualities []Quality) []string {
	names := make([]string, 0, len(qualities))
	for _, q := range qualities {
		names = append(names, q.Name)
	}
	return names
}
