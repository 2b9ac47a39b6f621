package framecadence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIVFSinkStoresDeliveredFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ivf")
	file, err := os.Create(path)
	assert.NoError(t, err)
	defer file.Close()

	sink, err := NewIVFSink(file, time.Second)
	assert.NoError(t, err)

	// Three deliveries, e.g. one original frame and two repeats.
	for i := 0; i != 3; i++ {
		sink.OnFrame(time.Now(), 1, VideoFrame{Data: make([]byte, 64)})
	}
	assert.NoError(t, sink.Close())

	info, err := os.Stat(path)
	assert.NoError(t, err)
	// IVF file header plus three frames with their frame headers.
	assert.GreaterOrEqual(t, info.Size(), int64(32+3*(12+64)))
}
