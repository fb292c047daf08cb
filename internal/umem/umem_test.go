package umem

import "testing"

func TestCreateRejectsBadFrameSize(t *testing.T) {
	_, err := Create(1500, 64, Flags{})
	if err == nil {
		t.Fatal("expected error for non-power-of-two frame size")
	}
	var uerr *Error
	if !asError(err, &uerr) || uerr.Kind != KindUnsupported {
		t.Fatalf("expected KindUnsupported, got %v", err)
	}
}

func TestCreateRejectsBadFrameCount(t *testing.T) {
	_, err := Create(2048, 63, Flags{})
	if err == nil {
		t.Fatal("expected error for non-power-of-two frame count")
	}
	_, err = Create(2048, 32, Flags{})
	if err == nil {
		t.Fatal("expected error for frame count below minimum")
	}
}

func TestFrameAndSlice(t *testing.T) {
	a, err := Create(2048, 64, Flags{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer a.Teardown()

	if a.Size() != 2048*64 {
		t.Fatalf("unexpected size %d", a.Size())
	}

	f0 := a.Frame(0)
	if len(f0) != 2048 {
		t.Fatalf("expected frame length 2048, got %d", len(f0))
	}
	f0[0] = 0xAB

	f1 := a.Frame(1)
	if f1[0] == 0xAB {
		t.Fatal("frames must not alias")
	}

	s := a.Slice(a.FrameBaseAddr(0), 10)
	if s[0] != 0xAB {
		t.Fatalf("slice at frame base did not see write through Frame(0)")
	}

	if idx := a.FrameIndexForAddr(a.FrameBaseAddr(3) + 5); idx != 3 {
		t.Fatalf("expected frame index 3, got %d", idx)
	}
}

func TestInBounds(t *testing.T) {
	a, err := Create(2048, 64, Flags{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer a.Teardown()

	if !a.InBounds(a.FrameBaseAddr(0), 60) {
		t.Fatal("expected in-bounds descriptor to pass")
	}
	if a.InBounds(a.FrameBaseAddr(0), 2049) {
		t.Fatal("expected descriptor spanning past frame end to fail")
	}
	if a.InBounds(a.Size()-1, 2) {
		t.Fatal("expected descriptor spanning past arena end to fail")
	}
}

// asError is a tiny errors.As shim kept local to avoid importing errors
// just for this one assertion in the test file.
func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
