package validation

import "testing"

func TestValidateSide(t *testing.T) {
	tests := []struct {
		name    string
		side    string
		wantErr bool
	}{
		{
			name:    "white",
			side:    "white",
			wantErr: false,
		},
		{
			name:    "black",
			side:    "black",
			wantErr: false,
		},
		{
			name:    "empty",
			side:    "",
			wantErr: true,
		},
		{
			name:    "capitalised",
			side:    "White",
			wantErr: true,
		},
		{
			name:    "single letter",
			side:    "w",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSide(tt.side)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSide(%q) error = %v, wantErr %v", tt.side, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUCI(t *testing.T) {
	tests := []struct {
		name    string
		uci     string
		wantErr bool
	}{
		{
			name:    "plain move",
			uci:     "e2e4",
			wantErr: false,
		},
		{
			name:    "promotion",
			uci:     "e7e8q",
			wantErr: false,
		},
		{
			name:    "underpromotion",
			uci:     "a2a1n",
			wantErr: false,
		},
		{
			name:    "san not uci",
			uci:     "Nf3",
			wantErr: true,
		},
		{
			name:    "off-board file",
			uci:     "i2i4",
			wantErr: true,
		},
		{
			name:    "invalid promotion piece",
			uci:     "e7e8k",
			wantErr: true,
		},
		{
			name:    "empty",
			uci:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUCI(tt.uci)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUCI(%q) error = %v, wantErr %v", tt.uci, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFEN(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		wantErr bool
	}{
		{
			name:    "starting position",
			fen:     "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			wantErr: false,
		},
		{
			name:    "black to move",
			fen:     "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			wantErr: false,
		},
		{
			name:    "missing move counters",
			fen:     "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq",
			wantErr: true,
		},
		{
			name:    "seven ranks",
			fen:     "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			wantErr: true,
		},
		{
			name:    "bad side to move",
			fen:     "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
			wantErr: true,
		},
		{
			name:    "empty",
			fen:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFEN(tt.fen)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFEN(%q) error = %v, wantErr %v", tt.fen, err, tt.wantErr)
			}
		})
	}
}
