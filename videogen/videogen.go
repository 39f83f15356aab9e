package videogen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Generator composites a short vertical slideshow clip from a post
// image by shelling out to ffmpeg: the image scaled and cropped to
// 9:16 with the post title drawn near the bottom.
type Generator struct {
	ffmpeg string
	// clip parameters, fixed to match the published format
	duration int
	fps      int
}

// New locates ffmpeg (or uses the given path) and returns a Generator.
// A missing binary is an error here, so callers can simply disable the
// video step instead of failing every post.
func New(ffmpegPath string) (*Generator, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	resolved, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	return &Generator{ffmpeg: resolved, duration: 7, fps: 30}, nil
}

// CreateVideo writes <HHMMSS>_video.mp4 next to the image and returns
// its path. An empty image path means there is nothing to composite
// and yields an empty result without error.
func (g *Generator) CreateVideo(ctx context.Context, account, topic, title, imagePath string) (string, error) {
	if imagePath == "" {
		return "", nil
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("post image missing: %w", err)
	}
	if title == "" {
		title = topic
	}

	outputPath := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	outputPath = strings.TrimSuffix(outputPath, "_image") + "_video.mp4"

	cmd := exec.CommandContext(ctx, g.ffmpeg, g.args(imagePath, title, outputPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, lastLine(out))
	}
	return outputPath, nil
}

func (g *Generator) args(imagePath, title, outputPath string) []string {
	filter := fmt.Sprintf(
		"scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920,"+
			"drawtext=text='%s':fontcolor=white:bordercolor=black:borderw=3:fontsize=70:"+
			"x=(w-text_w)/2:y=h-text_h-120",
		escapeDrawText(title),
	)
	return []string{
		"-y",
		"-loop", "1",
		"-t", fmt.Sprintf("%d", g.duration),
		"-i", imagePath,
		"-vf", filter,
		"-r", fmt.Sprintf("%d", g.fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		outputPath,
	}
}

// escapeDrawText escapes the characters the drawtext filter treats
// specially inside a single-quoted text value.
func escapeDrawText(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(s)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
