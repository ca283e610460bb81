package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer keeps the most recent frame as JPEG so several viewers can
// watch the camera without each reading from the device.
type FrameBuffer struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Publish encodes frame and makes it the latest. The frame is not retained.
func (b *FrameBuffer) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	b.PublishJPEG(buf.GetBytes())
	return nil
}

// PublishJPEG stores already-encoded bytes as the latest frame.
func (b *FrameBuffer) PublishJPEG(data []byte) {
	cp := append([]byte(nil), data...)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.jpeg = cp
	b.seq++
}

// Latest returns the newest JPEG and its sequence number. Sequence 0 means
// nothing has been published yet. The returned slice must not be modified.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}
