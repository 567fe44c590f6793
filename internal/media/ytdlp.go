package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/cuongbtq/redditlink/internal/job"
)

const (
	progressFrequency   = 200 * time.Millisecond
	defaultAudioQuality = "192K"
	unknownTitle        = "Unknown"
)

// ErrNoInfo is returned when yt-dlp produced no metadata for a URL
var ErrNoInfo = errors.New("no media information found")

// Info is the metadata shown before a download starts
type Info struct {
	Title     string
	Thumbnail *string
	Duration  *float64
	Uploader  *string
}

// YTDLPConfig holds yt-dlp engine configuration
type YTDLPConfig struct {
	Logger         *slog.Logger
	FFmpegLocation string
	AudioQuality   string
}

// YTDLP drives the yt-dlp binary through go-ytdlp. It implements job.Engine.
type YTDLP struct {
	logger         *slog.Logger
	ffmpegLocation string
	audioQuality   string
}

// NewYTDLP creates a new yt-dlp engine
func NewYTDLP(cfg *YTDLPConfig) *YTDLP {
	audioQuality := cfg.AudioQuality
	if audioQuality == "" {
		audioQuality = defaultAudioQuality
	}
	return &YTDLP{
		logger:         cfg.Logger,
		ffmpegLocation: cfg.FFmpegLocation,
		audioQuality:   audioQuality,
	}
}

// Install makes sure a yt-dlp binary is available, downloading it if needed
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// Fetch downloads req.URL into req.OutputTemplate. The artifact extension is
// only known after post-processing, so the path is left for the runner to
// locate.
func (y *YTDLP) Fetch(ctx context.Context, req job.FetchRequest, sink job.ProgressSink) (string, error) {
	format, ok := FormatFor(req.Quality)
	if !ok {
		return "", fmt.Errorf("invalid quality: %q", req.Quality)
	}

	dl := ytdlp.New().
		Format(format).
		Output(req.OutputTemplate).
		NoPlaylist().
		NoWarnings()

	if y.ffmpegLocation != "" {
		dl.FFmpegLocation(y.ffmpegLocation)
	}

	if IsAudio(req.Quality) {
		dl.ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(y.audioQuality)
	} else {
		dl.MergeOutputFormat("mp4")
	}

	dl.ProgressFunc(progressFrequency, func(update ytdlp.ProgressUpdate) {
		if ev, ok := progressEvent(update); ok {
			sink.Report(ev)
		}
	})

	y.logger.Info("Starting yt-dlp",
		slog.String("quality", req.Quality),
		slog.String("url", req.URL),
	)

	if _, err := dl.Run(ctx, req.URL); err != nil {
		return "", err
	}
	return "", nil
}

// Info looks up metadata for rawURL without downloading anything
func (y *YTDLP) Info(ctx context.Context, rawURL string) (*Info, error) {
	result, err := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings().
		Run(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract info: %w", err)
	}

	extracted, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to parse info: %w", err)
	}
	if len(extracted) == 0 {
		return nil, ErrNoInfo
	}
	return infoFrom(extracted[0]), nil
}

// progressEvent converts a yt-dlp progress update. Updates that carry no
// information for the job record are dropped.
func progressEvent(update ytdlp.ProgressUpdate) (job.ProgressEvent, bool) {
	switch update.Status {
	case ytdlp.ProgressStatusFinished, ytdlp.ProgressStatusPostProcessing:
		return job.ProgressEvent{Finished: true}, true
	case ytdlp.ProgressStatusDownloading:
		return job.ProgressEvent{
			Downloaded: int64(update.DownloadedBytes),
			Total:      int64(update.TotalBytes),
		}, true
	default:
		return job.ProgressEvent{}, false
	}
}

func infoFrom(e *ytdlp.ExtractedInfo) *Info {
	info := &Info{
		Title:     unknownTitle,
		Thumbnail: e.Thumbnail,
		Duration:  e.Duration,
		Uploader:  e.Uploader,
	}
	if e.Title != nil && *e.Title != "" {
		info.Title = *e.Title
	}
	if info.Uploader == nil || *info.Uploader == "" {
		info.Uploader = e.Channel
	}
	return info
}
