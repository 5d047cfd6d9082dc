package main

import (
	"net/url"
	"testing"
)

func TestParseProtocolURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "plain path",
			raw:  "3dprint://open?file=/srv/storage/Uploaded/model.stl",
			want: "/srv/storage/Uploaded/model.stl",
		},
		{
			name: "percent encoded path",
			raw:  "3dprint://open?file=" + url.QueryEscape(`C:\storage\Uploaded\model.stl`),
			want: `C:\storage\Uploaded\model.stl`,
		},
		{
			name: "encoded spaces",
			raw:  "3dprint://open?file=/srv/storage/Uploaded/JaneDoe_Filament_Blue%20v2_53dc535a.stl",
			want: "/srv/storage/Uploaded/JaneDoe_Filament_Blue v2_53dc535a.stl",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "wrong scheme",
			raw:     "http://open?file=/x.stl",
			wantErr: true,
		},
		{
			name:    "wrong action",
			raw:     "3dprint://delete?file=/x.stl",
			wantErr: true,
		},
		{
			name:    "no query",
			raw:     "3dprint://open",
			wantErr: true,
		},
		{
			name:    "missing file parameter",
			raw:     "3dprint://open?other=1",
			wantErr: true,
		},
		{
			name:    "empty file parameter",
			raw:     "3dprint://open?file=",
			wantErr: true,
		},
		{
			name:    "malformed percent encoding",
			raw:     "3dprint://open?file=%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProtocolURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseProtocolURL(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseProtocolURL(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("parseProtocolURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
