package reddit

import (
	"testing"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "bare post id", link: "m3reby", want: "t3_m3reby"},
		{name: "bare comment id", link: "gqnuxd5", want: "t1_gqnuxd5"},
		{name: "uppercase id normalized", link: "M3REBY", want: "t3_m3reby"},
		{name: "padded id", link: "  m3reby ", want: "t3_m3reby"},
		{
			name: "submission url",
			link: "https://www.reddit.com/r/golang/comments/m3reby/a_fine_title/",
			want: "t3_m3reby",
		},
		{
			name: "comment permalink resolves to its submission",
			link: "https://www.reddit.com/r/golang/comments/m3reby/a_fine_title/gqnuxd5/",
			want: "t3_m3reby",
		},
		{
			name: "old reddit url",
			link: "https://old.reddit.com/r/golang/comments/m3reby/",
			want: "t3_m3reby",
		},
		{name: "shortlink", link: "https://redd.it/m3reby", want: "t3_m3reby"},
		{name: "unrelated url", link: "https://example.com/foo/bar", wantErr: true},
		{name: "empty", link: "", wantErr: true},
		{name: "gibberish", link: "not a link at all", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLink(tt.link)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", got)
				}
				if !errors.IsKind(err, errors.KindConfig) {
					t.Errorf("unexpected error kind: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLinks(t *testing.T) {
	fullIDs, err := ParseLinks([]string{"m3reby", "gqnuxd5"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fullIDs) != 2 || fullIDs[0] != "t3_m3reby" || fullIDs[1] != "t1_gqnuxd5" {
		t.Errorf("unexpected fullnames %v", fullIDs)
	}

	if _, err := ParseLinks([]string{"m3reby", "https://example.com/"}); err == nil {
		t.Error("expected an error for the unparseable link")
	}
}
