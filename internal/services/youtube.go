package services

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"

	"studynook-backend/internal/logger"
)

// LectureTranscript is a YouTube lecture ready to be stored as a material.
type LectureTranscript struct {
	VideoID    string
	Title      string
	Channel    string
	Transcript string
}

// YouTubeService imports lecture transcripts from YouTube. Captions come
// from the transcript API first and from the video's own caption tracks
// when that fails.
type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
	logger        *slog.Logger
}

var (
	youtubeURLPattern   = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/|live/)|youtu\.be/)([\w-]{11})`)
	transcriptLanguages = []string{"en", "en-US", "en-GB"}
	errNoCaptions       = errors.New("no captions available for this video")
)

func NewYouTubeService(log *slog.Logger) *YouTubeService {
	if log == nil {
		log = logger.Nop()
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &YouTubeService{
		httpClient:    httpClient,
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{HTTPClient: httpClient},
		logger:        log,
	}
}

// VideoID extracts the 11-character id from a YouTube URL.
func VideoID(rawURL string) (string, error) {
	m := youtubeURLPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", &ValidationError{Fields: map[string]string{"url": "Invalid YouTube URL"}}
	}
	return m[1], nil
}

// Import fetches the transcript and title of a lecture video. Missing
// metadata only costs the title.
func (s *YouTubeService) Import(ctx context.Context, rawURL string) (*LectureTranscript, error) {
	videoID, err := VideoID(rawURL)
	if err != nil {
		return nil, err
	}

	lecture := &LectureTranscript{VideoID: videoID, Title: "YouTube Video: " + videoID}

	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		s.logger.Warn("youtube metadata lookup failed", "video_id", videoID, "error", err)
		video = nil
	} else {
		if strings.TrimSpace(video.Title) != "" {
			lecture.Title = video.Title
		}
		lecture.Channel = video.Author
	}

	transcript, apiErr := s.GetTranscript(ctx, videoID)
	if apiErr == nil {
		lecture.Transcript = transcript
		return lecture, nil
	}
	if video == nil {
		return nil, apiErr
	}

	s.logger.Debug("transcript api failed, trying caption tracks", "video_id", videoID, "error", apiErr)
	transcript, err = s.captionTrackTranscript(ctx, video)
	if err != nil {
		return nil, fmt.Errorf("transcript api: %v; caption tracks: %w", apiErr, err)
	}
	lecture.Transcript = transcript
	return lecture, nil
}

// GetTranscript fetches captions through the transcript API, preferring
// English and accepting any language otherwise.
func (s *YouTubeService) GetTranscript(ctx context.Context, videoID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	transcript, err := s.transcriptAPI.GetTranscript(videoID, transcriptLanguages)
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", fmt.Errorf("no subtitles available: %w", err)
		}
	}

	parts := make([]string, 0, len(transcript.Entries))
	for _, entry := range transcript.Entries {
		parts = append(parts, entry.Text)
	}
	return joinCaptionText(parts)
}

func (s *YouTubeService) captionTrackTranscript(ctx context.Context, video *yt.Video) (string, error) {
	track, ok := pickCaptionTrack(video.CaptionTracks, transcriptLanguages)
	if !ok {
		return "", errNoCaptions
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption request returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}
	return parseCaptionsXML(body)
}

// pickCaptionTrack returns the first track in a preferred language, then
// any manual track, then whatever exists.
func pickCaptionTrack(tracks []yt.CaptionTrack, preferred []string) (yt.CaptionTrack, bool) {
	if len(tracks) == 0 {
		return yt.CaptionTrack{}, false
	}
	for _, lang := range preferred {
		for _, t := range tracks {
			if strings.EqualFold(t.LanguageCode, lang) && t.BaseURL != "" {
				return t, true
			}
		}
	}
	for _, t := range tracks {
		if t.Kind != "asr" && t.BaseURL != "" {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.BaseURL != "" {
			return t, true
		}
	}
	return yt.CaptionTrack{}, false
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}
	parts := make([]string, 0, len(tt.Lines))
	for _, l := range tt.Lines {
		parts = append(parts, l.Text)
	}
	return joinCaptionText(parts)
}

func joinCaptionText(parts []string) (string, error) {
	var b strings.Builder
	for _, p := range parts {
		text := strings.Join(strings.Fields(html.UnescapeString(p)), " ")
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	if b.Len() == 0 {
		return "", errNoCaptions
	}
	return b.String(), nil
}
