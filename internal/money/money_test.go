package money

import "testing"

func TestFormat_Vietnamese(t *testing.T) {
	f := NewFormatter("vi", "đ")

	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0đ"},
		{2000, "2.000đ"},
		{1500000, "1.500.000đ"},
		{-2000, "-2.000đ"},
	}

	for _, tt := range tests {
		if got := f.Format(tt.amount); got != tt.want {
			t.Errorf("Format(%d): got %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormat_EnglishGrouping(t *testing.T) {
	f := NewFormatter("en", "")
	if got := f.Format(1500000); got != "1,500,000" {
		t.Errorf("got %q, want 1,500,000", got)
	}
}

func TestNewFormatter_BadLocaleFallsBack(t *testing.T) {
	f := NewFormatter("not-a-locale", "đ")
	if got := f.Format(2000); got != "2.000đ" {
		t.Errorf("expected Vietnamese fallback, got %q", got)
	}
}
