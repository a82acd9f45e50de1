package bson_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	jbson "github.com/relstream/jflow/bson"
)

func TestReaderSourceReadByte(t *testing.T) {
	t.Parallel()
	src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03})))
	for i, want := range []byte{0x01, 0x02, 0x03} {
		got, err := src.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte[%d]: %v", i, err)
		}
		if got != want {
			t.Errorf("ReadByte[%d] = %x, want %x", i, got, want)
		}
	}
	if src.Position() != 3 {
		t.Errorf("Position = %d, want 3", src.Position())
	}
	if _, err := src.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte at EOF = %v, want io.EOF", err)
	}
}

func TestReaderSourceRead(t *testing.T) {
	t.Parallel()
	src := jbson.NewReaderSource(bufio.NewReader(bytes.NewReader([]byte("hello world"))))
	buf := make([]byte, 5)
	n, err := src.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Fatalf("Read = %d,%q want 5,%q", n, buf, "hello")
	}
	if src.Position() != 5 {
		t.Errorf("Position = %d, want 5", src.Position())
	}
	if _, err := src.Read(make([]byte, 100)); err == nil {
		t.Error("expected a short-read error past end of input")
	}
}
