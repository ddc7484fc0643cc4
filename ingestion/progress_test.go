package ingestion

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports at interval boundaries", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 20, 10)

		tracker.start()
		tracker.increment(10)

		out := buf.String()
		assert.Contains(t, out, "10/20")
		assert.Contains(t, out, "(50.0%)")

		tracker.increment(10)
		assert.Contains(t, buf.String(), "20/20")
	})

	t.Run("skips reports inside the interval", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 100, 50)

		tracker.start()
		tracker.increment(10)

		assert.Empty(t, buf.String())
	})

	t.Run("finish always reports and ends the line", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 7, 100)

		tracker.start()
		tracker.increment(7)
		tracker.finish()

		out := buf.String()
		assert.Contains(t, out, "7/7")
		assert.Contains(t, out, "(100.0%)")
		require.NotEmpty(t, out)
		assert.Equal(t, byte('\n'), out[len(out)-1])
	})

	t.Run("increment before start does nothing", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 10, 1)

		tracker.increment(5)

		assert.Empty(t, buf.String())
	})

	t.Run("caps progress at total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 5, 1)

		tracker.start()
		tracker.increment(50)

		out := buf.String()
		assert.Contains(t, out, "5/5")
		assert.NotContains(t, out, "50/5")
	})

	t.Run("abandon ends a printed line", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 10, 1)

		tracker.start()
		tracker.increment(3)
		tracker.abandon()

		out := buf.String()
		assert.Contains(t, out, "3/10")
		assert.Equal(t, byte('\n'), out[len(out)-1])
		assert.NotContains(t, out, "10/10", "abandon must not claim completion")
	})

	t.Run("abandon is silent when nothing was printed", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 100, 50)

		tracker.start()
		tracker.increment(3)
		tracker.abandon()

		assert.Empty(t, buf.String())
	})

	t.Run("elapsed is zero before start", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 5, 1)

		assert.Zero(t, tracker.elapsed())
	})

	t.Run("interval below one is clamped", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := newProgressTracker(&buf, 3, 0)

		tracker.start()
		tracker.increment(1)

		assert.Contains(t, buf.String(), "1/3")
	})
}
