package core

import "testing"

func TestResolveRepository(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		channel string
		want    string
		wantOK  bool
	}{
		{
			name:    "absolute url passthrough",
			entry:   "https://example.com/repo.json",
			channel: "https://host.example/channel.json",
			want:    "https://example.com/repo.json",
			wantOK:  true,
		},
		{
			name:    "protocol relative inherits http",
			entry:   "//example.com/repo.json",
			channel: "http://host.example/channel.json",
			want:    "http://example.com/repo.json",
			wantOK:  true,
		},
		{
			name:    "protocol relative defaults to https for file channels",
			entry:   "//example.com/repo.json",
			channel: "/home/user/channel.json",
			want:    "https://example.com/repo.json",
			wantOK:  true,
		},
		{
			name:    "root absolute rejected",
			entry:   "/etc/passwd",
			channel: "https://host.example/channel.json",
			wantOK:  false,
		},
		{
			name:    "relative url joined",
			entry:   "./sub/repo.json",
			channel: "https://host.example/dir/channel.json",
			want:    "https://host.example/dir/sub/repo.json",
			wantOK:  true,
		},
		{
			name:    "parent relative url joined",
			entry:   "../repo.json",
			channel: "https://host.example/dir/channel.json",
			want:    "https://host.example/repo.json",
			wantOK:  true,
		},
		{
			name:    "relative path joined and normalized",
			entry:   "../other/channel.json",
			channel: "/a/b/channel.json",
			want:    "/a/other/channel.json",
			wantOK:  true,
		},
		{
			name:    "bare name passthrough",
			entry:   "repo.json",
			channel: "/a/b/channel.json",
			want:    "repo.json",
			wantOK:  true,
		},
		{
			name:    "scheme matching is case insensitive",
			entry:   "//example.com/repo.json",
			channel: "HTTP://host.example/channel.json",
			want:    "HTTP://example.com/repo.json",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveRepository(tt.entry, tt.channel)
			if ok != tt.wantOK {
				t.Fatalf("resolveRepository(%q, %q) ok = %v, want %v", tt.entry, tt.channel, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("resolveRepository(%q, %q) = %q, want %q", tt.entry, tt.channel, got, tt.want)
			}
		})
	}
}
