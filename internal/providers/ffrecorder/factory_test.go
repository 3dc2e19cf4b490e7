package ffrecorder

import "testing"

const sampleMuxerOutput = `Muxers:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E 3g2             3GP2 (3GPP2 file format)
  E a64             a64 - video for Commodore 64
 DE avi             AVI (Audio Video Interleaved)
 D  dv              DV (Digital Video)
  E matroska        Matroska
  E mp4             MP4 (MPEG-4 Part 14)
  E mov,mp4,m4a,3gp,3g2,mj2 QuickTime / MOV
  E webm            WebM
`

func TestParseMuxers(t *testing.T) {
	t.Parallel()
	muxers := parseMuxers(sampleMuxerOutput)

	for _, name := range []string{"mp4", "webm", "matroska", "avi", "mov", "m4a", "3gp"} {
		if !muxers[name] {
			t.Errorf("muxer %q missing", name)
		}
	}
	if muxers["dv"] {
		t.Error("demux-only entry parsed as a muxer")
	}
	if muxers["="] || muxers["--"] {
		t.Error("legend lines parsed as muxers")
	}
}

func TestParseMuxersEmptyOutput(t *testing.T) {
	t.Parallel()
	if got := len(parseMuxers("")); got != 0 {
		t.Fatalf("expected no muxers, got %d", got)
	}
}

func TestNormalizeMime(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in   string
		want string
	}{
		"already normal": {in: "video/mp4", want: "video/mp4"},
		"upper case":     {in: "Video/MP4;Codecs=H264", want: "video/mp4;codecs=h264"},
		"inner spaces":   {in: "video/webm; codecs=vp9", want: "video/webm;codecs=vp9"},
		"padded":         {in: "  video/webm  ", want: "video/webm"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeMime(tc.in); got != tc.want {
				t.Fatalf("normalizeMime(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatTable(t *testing.T) {
	t.Parallel()

	for _, mime := range []string{"video/mp4;codecs=h264", "video/mp4"} {
		spec := formats[mime]
		if spec.muxer != "mp4" || spec.codec != "libx264" {
			t.Fatalf("%s maps to %+v", mime, spec)
		}
		if len(spec.extraArgs) == 0 {
			t.Fatalf("%s must carry fragmented-mp4 flags", mime)
		}
	}
	if spec := formats["video/webm;codecs=vp9"]; spec.codec != "libvpx-vp9" {
		t.Fatalf("vp9 maps to %+v", spec)
	}
	if spec := formats["video/webm"]; spec.muxer != "webm" || spec.codec != "libvpx" {
		t.Fatalf("webm maps to %+v", spec)
	}
}

func TestSupportsUnknownFormat(t *testing.T) {
	t.Parallel()
	factory := NewFactory("ffmpeg", nil, 24)
	if factory.Supports("video/ogg") {
		t.Fatal("unknown descriptor reported as supported")
	}
}
