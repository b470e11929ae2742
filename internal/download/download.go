// Package download drives yt-dlp over an ordered table of sources.
package download

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vodkeeper/internal/execx"
)

// Stream types used by the default source table.
const (
	TypeVideo     = "Video"
	TypeStream    = "Stream"
	TypeMembers   = execx.MembersType
	TypeTwitch    = "Twitch"
	TypeTwitchVod = "TwitchVod"
	TypeExternal  = "External"
)

// DefaultSources is the built-in source table. Each channel ends with its
// members passes.
func DefaultSources() []execx.Source {
	return []execx.Source{
		{Channel: "Dokibird", Type: TypeMembers, URL: "https://www.youtube.com/Dokibird/membership"},
		{Channel: "Dokibird", Type: TypeVideo, URL: "https://www.youtube.com/Dokibird/videos"},
		{Channel: "Dokibird", Type: TypeTwitchVod, URL: "https://www.youtube.com/@DokibirdVODs/videos"},
		{Channel: "Dokibird", Type: TypeTwitch, URL: "https://www.twitch.tv/dokibird/videos?filter=archives&sort=time"},
		{Channel: "Dokibird", Type: TypeStream, URL: "https://www.youtube.com/Dokibird/streams"},
		{Channel: "Dokibird", Type: TypeMembers, URL: "https://www.youtube.com/Dokibird/membership"},
		{Channel: "Dokibird", Type: TypeMembers, URL: "https://www.youtube.com/Dokibird/videos"},
		{Channel: "Dokibird", Type: TypeMembers, URL: "https://www.youtube.com/Dokibird/streams"},

		{Channel: "MintFantome", Type: TypeMembers, URL: "https://www.youtube.com/@mintfantome/membership"},
		{Channel: "MintFantome", Type: TypeVideo, URL: "https://www.youtube.com/@mintfantome/videos"},
		{Channel: "MintFantome", Type: TypeStream, URL: "https://www.youtube.com/@mintfantome/streams"},
		{Channel: "MintFantome", Type: TypeExternal, URL: "https://www.youtube.com/@densetsu-exe/videos"},
		{Channel: "MintFantome", Type: TypeExternal, URL: "https://www.youtube.com/@densetsu-exe/streams"},
		{Channel: "MintFantome", Type: TypeMembers, URL: "https://www.youtube.com/@mintfantome/membership"},
		{Channel: "MintFantome", Type: TypeMembers, URL: "https://www.youtube.com/@mintfantome/videos"},
		{Channel: "MintFantome", Type: TypeMembers, URL: "https://www.youtube.com/@mintfantome/streams"},
	}
}

// ValidateSources rejects sources missing any field.
func ValidateSources(sources []execx.Source) error {
	var errs []error
	for i, s := range sources {
		if s.Channel == "" || s.Type == "" || s.URL == "" {
			errs = append(errs, fmt.Errorf("source %d: channel, type and url are required", i+1))
		}
	}
	return errors.Join(errs...)
}

// Result counts source runs.
type Result struct {
	Ran    int
	Failed int
}

// Downloader runs yt-dlp once per source.
type Downloader struct {
	Runner  execx.Runner
	Tool    string
	Sources []execx.Source
	Options execx.YtDlpOptions
	Logger  *zap.Logger
}

// Update runs the yt-dlp self-update. A missing tool is returned as
// ErrToolNotFound; any other failure is only logged.
func (d *Downloader) Update(ctx context.Context) error {
	d.Logger.Info("updating yt-dlp", zap.String("tool", d.Tool))
	err := d.Runner.Run(ctx, d.Tool, "-U")
	if err == nil {
		return nil
	}
	if errors.Is(err, execx.ErrToolNotFound) {
		return err
	}
	d.Logger.Warn("failed to update yt-dlp", zap.Error(err))
	return nil
}

// Run downloads every source in order. Per-source failures are counted
// and the batch continues; a missing tool or a cancelled context stops it.
func (d *Downloader) Run(ctx context.Context) (Result, error) {
	var res Result
	for _, src := range d.Sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fields := []zap.Field{
			zap.String("channel", src.Channel),
			zap.String("type", src.Type),
			zap.String("url", src.URL),
			zap.Bool("thumbnail", !src.IsTwitch()),
		}
		if src.Type == TypeMembers {
			d.Logger.Info("downloading members content", fields...)
		} else {
			d.Logger.Info("downloading", fields...)
		}

		res.Ran++
		err := d.Runner.Run(ctx, d.Tool, execx.BuildYtDlpArgs(src, d.Options)...)
		if err == nil {
			continue
		}
		if errors.Is(err, execx.ErrToolNotFound) {
			return res, err
		}
		res.Failed++
		d.Logger.Error("download failed", append(fields, zap.Error(err))...)
	}
	return res, nil
}
