package media

import "sort"

// Quality selectors accepted by the download endpoint
const (
	QualityBest  = "best"
	Quality1080p = "1080p"
	Quality720p  = "720p"
	Quality480p  = "480p"
	QualityAudio = "audio"
)

// formats maps each quality selector to a yt-dlp format expression. Every
// entry falls back to progressively looser matches so shorts and restricted
// videos still resolve to something.
var formats = map[string]string{
	QualityBest:  "(bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio)/best",
	Quality1080p: "(bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=1080]+bestaudio)/best[height<=1080]/best",
	Quality720p:  "(bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=720]+bestaudio)/best[height<=720]/best",
	Quality480p:  "(bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=480]+bestaudio)/best[height<=480]/best",
	QualityAudio: "bestaudio[ext=m4a]/bestaudio/best",
}

// FormatFor returns the format expression for quality
func FormatFor(quality string) (string, bool) {
	f, ok := formats[quality]
	return f, ok
}

// IsAudio reports whether quality asks for an audio-only result
func IsAudio(quality string) bool {
	return quality == QualityAudio
}

// Qualities returns the accepted selectors in a stable order
func Qualities() []string {
	out := make([]string, 0, len(formats))
	for q := range formats {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}
