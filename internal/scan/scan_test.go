package scan

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder map[string][]float64

func (r recorder) Fold(key []byte, value float64) {
	r[string(key)] = append(r[string(key)], value)
}

func scan(t *testing.T, input string) (recorder, Counts, []Malformed) {
	t.Helper()
	var dropped []Malformed
	s := New(func(m Malformed) { dropped = append(dropped, m) })
	rec := recorder{}
	counts := s.Scan([]byte(input), 0, rec)
	return rec, counts, dropped
}

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  recorder
		count Counts
	}{
		{
			name:  "basic",
			input: "Hamburg;12.0\nBerlin;5.5\nHamburg;8.0\n",
			want:  recorder{"Hamburg": {12.0, 8.0}, "Berlin": {5.5}},
			count: Counts{Records: 3},
		},
		{
			name:  "crlf",
			input: "Hamburg;12.0\r\nBerlin;5.5\r\n",
			want:  recorder{"Hamburg": {12.0}, "Berlin": {5.5}},
			count: Counts{Records: 2},
		},
		{
			name:  "no trailing terminator",
			input: "Hamburg;12.0\nBerlin;-5.5",
			want:  recorder{"Hamburg": {12.0}, "Berlin": {-5.5}},
			count: Counts{Records: 2},
		},
		{
			name:  "no trailing terminator after carriage return",
			input: "Berlin;5.5\r",
			want:  recorder{"Berlin": {5.5}},
			count: Counts{Records: 1},
		},
		{
			name:  "trailing separator without value",
			input: "Hamburg;12.0\nBerlin;",
			want:  recorder{"Hamburg": {12.0}},
			count: Counts{Records: 1},
		},
		{
			name:  "comments and blank lines",
			input: "# header\nHamburg;12.0\n\n   \n\r\n#Berlin;5.5\nBerlin;1\n# trailing",
			want:  recorder{"Hamburg": {12.0}, "Berlin": {1}},
			count: Counts{Records: 2, Skipped: 6},
		},
		{
			name:  "hash inside key is not a comment",
			input: "Ham#burg;1.5\nBerlin;2#\n",
			want:  recorder{"Ham#burg": {1.5}},
			count: Counts{Records: 1, Malformed: 1},
		},
		{
			name:  "empty",
			input: "",
			want:  recorder{},
		},
		{
			name:  "utf-8 keys",
			input: "São Paulo;25.1\nZürich;-1.0\n",
			want:  recorder{"São Paulo": {25.1}, "Zürich": {-1.0}},
			count: Counts{Records: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, counts, _ := scan(t, tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, counts)
		})
	}
}

func TestScanMalformedValue(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteString("Hamburg;1.0\n")
		if i == 4 {
			b.WriteString("Hamburg;warm\n")
		}
	}

	got, counts, dropped := scan(t, b.String())
	assert.Len(t, got["Hamburg"], 9)
	assert.Equal(t, Counts{Records: 9, Malformed: 1}, counts)
	require.Len(t, dropped, 1)
	assert.Equal(t, "Hamburg", dropped[0].Key)
	assert.Equal(t, "warm", dropped[0].Value)
	assert.Equal(t, int64(5*len("Hamburg;1.0\n")), dropped[0].Offset)
}

func TestScanDropped(t *testing.T) {
	tests := []struct {
		name  string
		input string
		key   string
		value string
	}{
		{"no separator", "Hamburg 12.0\n", "Hamburg 12.0", ""},
		{"no separator at end", "Hamburg", "Hamburg", ""},
		{"empty key", ";12.0\n", "", "12.0"},
		{"empty value", "Hamburg;\n", "Hamburg", ""},
		{"second separator", "Hamburg;1;2\n", "Hamburg", "1;2"},
		{"nan", "Hamburg;NaN\n", "Hamburg", "NaN"},
		{"infinity", "Hamburg;-Inf\n", "Hamburg", "-Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, counts, dropped := scan(t, tt.input)
			assert.Empty(t, got)
			assert.Equal(t, Counts{Malformed: 1}, counts)
			require.Len(t, dropped, 1)
			assert.Equal(t, tt.key, dropped[0].Key)
			assert.Equal(t, tt.value, dropped[0].Value)
			assert.Error(t, dropped[0].Err)
		})
	}
}

func TestScanOffsetsUseBase(t *testing.T) {
	var dropped []Malformed
	s := New(func(m Malformed) { dropped = append(dropped, m) })
	s.Scan([]byte("A;1\nB;x\n"), 1000, recorder{})
	require.Len(t, dropped, 1)
	assert.Equal(t, int64(1004), dropped[0].Offset)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New(LogReporter(logger))
	s.Scan([]byte("Hamburg;warm\n"), 0, recorder{})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "key=Hamburg")
	assert.Contains(t, out, "value=warm")
}

func TestCountsAdd(t *testing.T) {
	c := Counts{Records: 1, Skipped: 2, Malformed: 3}
	c.Add(Counts{Records: 10, Skipped: 20, Malformed: 30})
	assert.Equal(t, Counts{Records: 11, Skipped: 22, Malformed: 33}, c)
}
