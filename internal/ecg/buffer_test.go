package ecg

import "testing"

func TestRollingBufferRetainsMostRecent(t *testing.T) {
	for _, capacity := range []int{1, 2, 5, 100} {
		buf := NewRollingBuffer(capacity)

		total := capacity*3 + 1
		for i := 0; i < total; i++ {
			buf.Push(i)
		}

		if buf.Len() != capacity {
			t.Fatalf("cap %d: length %d after overflow", capacity, buf.Len())
		}

		snap := buf.Snapshot()
		for i, v := range snap {
			want := total - capacity + i
			if v != want {
				t.Fatalf("cap %d: snapshot[%d] = %d, want %d", capacity, i, v, want)
			}
		}
	}
}

func TestRollingBufferClear(t *testing.T) {
	buf := NewRollingBuffer(4)
	for i := 0; i < 10; i++ {
		buf.Push(i)
	}
	buf.Clear()

	if buf.Len() != 0 {
		t.Fatalf("length %d after clear", buf.Len())
	}
	if snap := buf.Snapshot(); len(snap) != 0 {
		t.Fatalf("snapshot %#v after clear", snap)
	}

	buf.Push(42)
	if snap := buf.Snapshot(); len(snap) != 1 || snap[0] != 42 {
		t.Fatalf("push after clear broken: %#v", snap)
	}
}

func TestRollingBufferSnapshotIsCopy(t *testing.T) {
	buf := NewRollingBuffer(3)
	buf.Push(1)
	buf.Push(2)

	snap := buf.Snapshot()
	snap[0] = 999
	if again := buf.Snapshot(); again[0] != 1 {
		t.Fatalf("snapshot must not alias the ring: %#v", again)
	}
}
