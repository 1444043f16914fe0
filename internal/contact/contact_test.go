package contact

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Jl. Merdeka No 10 RT 2/RW 3",
			want:  "Jl. Merdeka No 10 RT 2/RW 3",
		},
		{
			name:  "emoji removed",
			input: "Budi Santoso 😀🔥",
			want:  "Budi Santoso",
		},
		{
			name:  "symbols removed, address punctuation kept",
			input: "Jl. Mawar *No. 5*, Blok C-2 (belakang pasar)",
			want:  "Jl. Mawar No. 5, Blok C-2 belakang pasar",
		},
		{
			name:  "whitespace collapsed",
			input: "  Jl.   Kenanga \t 7 ",
			want:  "Jl. Kenanga 7",
		},
		{
			name:  "only symbols yields empty",
			input: "⭐⭐⭐",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "leading zero replaced", input: "081234567890", want: "6281234567890"},
		{name: "formatted international", input: "+62 812-3456-7890", want: "6281234567890"},
		{name: "already prefixed", input: "6281234567890", want: "6281234567890"},
		{name: "bare local number prefixed", input: "81234567890", want: "6281234567890"},
		{name: "too short left alone", input: "12345", want: "12345"},
		{name: "non digits stripped", input: "hp: 0812 3456 789", want: "628123456789"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		want    string
	}{
		{
			name: "all fields",
			contact: Contact{
				StreetAddress: "Jl. Merdeka No 10",
				Village:       "Sidokare",
				District:      "Sidoarjo",
				Regency:       "Kabupaten Sidoarjo",
				Province:      "Jawa Timur",
				PostalCode:    "61214",
			},
			want: "Jl. Merdeka No 10, Kel. Sidokare, Kec. Sidoarjo, KABUPATEN SIDOARJO, JAWA TIMUR, 61214",
		},
		{
			name: "empty segments omitted",
			contact: Contact{
				StreetAddress: "Jl. Merdeka No 10",
				Regency:       "Kota Surabaya",
			},
			want: "Jl. Merdeka No 10, KOTA SURABAYA",
		},
		{
			name:    "empty contact",
			contact: Contact{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAddress(&tt.contact); got != tt.want {
				t.Errorf("FormatAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &Contact{
		Name:        "Budi",
		Corrections: []Correction{{Field: "province", OriginalValue: "jatim", CorrectedValue: "JAWA TIMUR"}},
	}
	clone := orig.Clone()
	clone.Corrections = append(clone.Corrections, Correction{Field: "regency"})
	clone.Name = "Siti"

	if len(orig.Corrections) != 1 {
		t.Errorf("original corrections mutated: got %d entries, want 1", len(orig.Corrections))
	}
	if orig.Name != "Budi" {
		t.Errorf("original name mutated: got %q", orig.Name)
	}
}
