package videogen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeDrawText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{"100% cozy", `100\% cozy`},
		{"morning: coffee", `morning\: coffee`},
		{"it's fine", `it\'s fine`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, escapeDrawText(tc.in), "input %q", tc.in)
	}
}

func TestArgsShape(t *testing.T) {
	g := &Generator{ffmpeg: "ffmpeg", duration: 7, fps: 30}
	args := g.args("in.png", "My Title", "out.mp4")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-t 7")
	assert.Contains(t, joined, "-r 30")
	assert.Contains(t, joined, "scale=1080:1920")
	assert.Contains(t, joined, "crop=1080:1920")
	assert.Contains(t, joined, "drawtext=text='My Title'")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestCreateVideoSkipsWithoutImage(t *testing.T) {
	g := &Generator{ffmpeg: "ffmpeg", duration: 7, fps: 30}
	path, err := g.CreateVideo(context.Background(), "acct", "topic", "title", "")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestCreateVideoOutputPath(t *testing.T) {
	// Only the path derivation matters here; the image does not exist,
	// so CreateVideo errors before invoking ffmpeg.
	g := &Generator{ffmpeg: "ffmpeg", duration: 7, fps: 30}
	_, err := g.CreateVideo(context.Background(), "acct", "topic", "title", "nope/120000_image.png")
	assert.Error(t, err)
}
