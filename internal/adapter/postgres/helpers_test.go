package postgres

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNormalizeValue(t *testing.T) {
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int32", int32(4183), int64(4183)},
		{"int16", int16(3), int64(3)},
		{"int64", int64(9), int64(9)},
		{"float32", float32(1.5), float64(1.5)},
		{"numeric", pgtype.Numeric{Int: big.NewInt(2855), Exp: -1, Valid: true}, 285.5},
		{"null numeric", pgtype.Numeric{}, nil},
		{"uuid", id, "12345678-9abc-def0-1234-56789abcdef0"},
		{"bytes", []byte("KC"), "KC"},
		{"date", time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC), "2024-09-05"},
		{"timestamp", time.Date(2024, 9, 5, 20, 20, 0, 0, time.UTC), "2024-09-05T20:20:00Z"},
		{"string", "P. Mahomes", "P. Mahomes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.in); got != tt.want {
				t.Errorf("normalizeValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
