package tui

import (
	"strings"
	"testing"
)

func TestFormatRecord(t *testing.T) {
	b := sampleBook(t)

	tests := []struct {
		name string
		want []string
		skip []string
	}{
		{
			name: "John Doe",
			want: []string{"John Doe", "phones: 0991234567", "emails: john@gmail.com", "birthday: 1990-06-16 (tomorrow)"},
		},
		{
			name: "Jane Smith",
			want: []string{"Jane Smith", "phones: 0501234567"},
			skip: []string{"birthday"},
		},
		{
			name: "Bob Stone",
			want: []string{"Bob Stone"},
			skip: []string{"phones", "emails", "birthday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := b.Get(tt.name)
			if !ok {
				t.Fatalf("missing %q", tt.name)
			}
			got := FormatRecord(r, testToday)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("FormatRecord() = %q, want to contain %q", got, w)
				}
			}
			for _, s := range tt.skip {
				if strings.Contains(got, s) {
					t.Errorf("FormatRecord() = %q, should not contain %q", got, s)
				}
			}
		})
	}
}

func TestDaysLabel(t *testing.T) {
	tests := map[int]string{0: "today", 1: "tomorrow", 12: "in 12 days"}
	for days, want := range tests {
		if got := DaysLabel(days); got != want {
			t.Errorf("DaysLabel(%d) = %q, want %q", days, got, want)
		}
	}
}
