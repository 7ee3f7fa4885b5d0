package mahjong

import (
	"strconv"
	"testing"
)

func TestParseHandString(t *testing.T) {
	tests := []struct {
		s       string
		want    Hand
		wantErr bool
	}{
		{
			s: "678m56p233789s11z",
			want: func() Hand {
				h := NewHand()
				h.HonorMult[0] = 0
				h.Suited[Man][5] = 1
				h.Suited[Man][6] = 1
				h.Suited[Man][7] = 1
				h.Suited[Pin][4] = 1
				h.Suited[Pin][5] = 1
				h.Suited[Sou][1] = 1
				h.Suited[Sou][2] = 2
				h.Suited[Sou][6] = 1
				h.Suited[Sou][7] = 1
				h.Suited[Sou][8] = 1
				h.HonorMult[2] = 1
				h.HonorMult[0] = 6
				return h
			}(),
		},
		{
			s:       "9x",
			wantErr: true,
		},
		{
			s:       "m678",
			wantErr: true,
		},
		{
			s:       "1",
			wantErr: true,
		},
	}
	for i, tt := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			got, err := ParseHandString(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseHandString(%q): want error, got none", tt.s)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHandString(%q): unexpected error: %v", tt.s, err)
			}
			if got != tt.want {
				t.Errorf("ParseHandString(%q) = %+v, want %+v", tt.s, got, tt.want)
			}
			if n := got.NumTiles(); n != 13 {
				t.Errorf("ParseHandString(%q).NumTiles() = %d, want 13", tt.s, n)
			}
		})
	}
}
