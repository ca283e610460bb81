package capture

import (
	"bytes"
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestFrameBuffer_Empty(t *testing.T) {
	b := NewFrameBuffer()

	data, seq := b.Latest()
	if data != nil || seq != 0 {
		t.Errorf("Latest() = %v, %d; want nil, 0", data, seq)
	}

	if err := b.Publish(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Publish(nil) error = %v, want ErrEmptyFrame", err)
	}
}

func TestFrameBuffer_PublishJPEG(t *testing.T) {
	b := NewFrameBuffer()

	src := []byte{0xff, 0xd8, 0x01, 0xff, 0xd9}
	b.PublishJPEG(src)
	src[2] = 0x02

	data, seq := b.Latest()
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
	if !bytes.Equal(data, []byte{0xff, 0xd8, 0x01, 0xff, 0xd9}) {
		t.Errorf("buffer should hold a copy, got %v", data)
	}

	b.PublishJPEG(src)
	if _, seq := b.Latest(); seq != 2 {
		t.Errorf("seq = %d, want 2", seq)
	}
}

func TestFrameBuffer_Publish(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	b := NewFrameBuffer()
	if err := b.Publish(&frame); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	data, seq := b.Latest()
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Error("published frame should be a JPEG")
	}
}
