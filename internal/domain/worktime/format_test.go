package worktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{28800, "08:00:00"},
		{100 * 3600, "100:00:00"},
		{-5, "00:00:00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatElapsed(c.seconds), "FormatElapsed(%d)", c.seconds)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusUnder, Classify(0))
	assert.Equal(t, StatusUnder, Classify(28799))
	assert.Equal(t, StatusOver, Classify(28800))
	assert.Equal(t, StatusOver, Classify(40000))
}

func TestFormatWorked(t *testing.T) {
	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	t.Run("truncates seconds", func(t *testing.T) {
		out := time.Date(2024, 1, 15, 17, 30, 15, 0, time.UTC)
		assert.Equal(t, "8:30", FormatWorked(in, &out))
	})

	t.Run("pads minutes", func(t *testing.T) {
		out := in.Add(time.Hour + 5*time.Minute + 59*time.Second)
		assert.Equal(t, "1:05", FormatWorked(in, &out))
	})

	t.Run("hours beyond a day", func(t *testing.T) {
		out := in.Add(26*time.Hour + 3*time.Minute)
		assert.Equal(t, "26:03", FormatWorked(in, &out))
	})

	t.Run("open record", func(t *testing.T) {
		assert.Equal(t, NoDuration, FormatWorked(in, nil))
	})
}

func TestSplit(t *testing.T) {
	h, m := Split(8*time.Hour + 30*time.Minute + 15*time.Second)
	assert.Equal(t, 8, h)
	assert.Equal(t, 30, m)

	h, m = Split(-time.Minute)
	assert.Zero(t, h)
	assert.Zero(t, m)
}

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(3661), ElapsedSeconds(start, start.Add(3661*time.Second+900*time.Millisecond)))
	assert.Equal(t, int64(0), ElapsedSeconds(start, start.Add(-time.Second)))
}
