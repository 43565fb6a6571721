package catalog

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Karasuhime/yozora/internal/log"
)

// SubtitleProber checks whether a sidecar subtitle track exists next to a
// media source.  The archive stores subtitles as "<source>.en.vtt" beside the
// media file; a cheap HEAD request is enough to know whether to attach one.
type SubtitleProber struct {
	httpClient *http.Client
}

func NewSubtitleProber() *SubtitleProber {
	return &SubtitleProber{
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Find probes for an English subtitle track beside the source.  Best effort:
// any failure means "no subtitle", never an error.
func (p *SubtitleProber) Find(ctx context.Context, sourceURL string) (string, bool) {
	subURL := SubtitleURL(sourceURL)
	if subURL == "" {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, subURL, nil)
	if err != nil {
		return "", false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Debug("Subtitle probe failed", "url", subURL, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	log.Debug("Subtitle track found", "url", subURL)
	return subURL, true
}

// SubtitleURL derives the sidecar subtitle locator from a media source URL.
// Returns "" when the source has no extension to replace.
func SubtitleURL(sourceURL string) string {
	ext := path.Ext(sourceURL)
	if ext == "" || strings.Contains(ext, "/") {
		return ""
	}
	return strings.TrimSuffix(sourceURL, ext) + ".en.vtt"
}
