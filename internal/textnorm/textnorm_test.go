package textnorm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"London", []string{"london"}},
		{"São Paulo", []string{"sao", "paulo"}},
		{"Zürich-Flughafen", []string{"zurich", "flughafen"}},
		{"  St. John's  ", []string{"st", "john", "s"}},
		{"Straße", []string{"strasse"}},
		{"Łódź", []string{"lodz"}},
		{"Москва", []string{"москва"}},
		{"Ho Chi Minh City (Saigon)", []string{"ho", "chi", "minh", "city", "saigon"}},
		{"", nil},
		{" ,;- ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "sao paulo", Normalize("SÃO   PAULO"))
	assert.Equal(t, Normalize("Köln"), Normalize("koln"))
	assert.Equal(t, "", Normalize("..."))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Unique([]string{"a", "b", "a", "b"}))
	assert.Equal(t, []string{"a"}, Unique([]string{"a"}))
}

func TestFold_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "reykjavik", Fold("Reykjavík"))
			}
		}()
	}
	wg.Wait()
}

func TestWithinOneEdit(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"paris", "paris", true},
		{"pariss", "paris", true},
		{"paris", "pxris", true},
		{"paris", "apris", true},
		{"paris", "pars", true},
		{"paris", "prais", true},
		{"paris", "london", false},
		{"paris", "parisss", false},
		{"paris", "piras", false},
		{"", "a", true},
		{"zürich", "zurich", true},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, WithinOneEdit(tt.a, tt.b), "WithinOneEdit(%q, %q)", tt.a, tt.b)
	}
}
