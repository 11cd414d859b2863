package objectstore

import (
	"testing"

	"waveform-hq/archivist/pkg/sds"
)

func TestStore_Key(t *testing.T) {
	file, err := sds.ParseFilename("/data/SDS", "NL.HGN.02.BHZ.Q.2019.022")
	if err != nil {
		t.Fatalf("ParseFilename() error = %v", err)
	}

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"no prefix", "", "2019/NL/HGN/BHZ.Q/NL.HGN.02.BHZ.Q.2019.022"},
		{"with prefix", "archive", "archive/2019/NL/HGN/BHZ.Q/NL.HGN.02.BHZ.Q.2019.022"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{cfg: Config{Bucket: "b", Prefix: tt.prefix}}
			if got := s.Key(file); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}
