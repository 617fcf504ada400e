package kms

import (
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestModeEqualIgnoresFlagsAndName(t *testing.T) {
	a := Mode{Width: 1920, Height: 1080, Refresh: 60, Name: "a", Flags: 1}
	b := Mode{Width: 1920, Height: 1080, Refresh: 60, Name: "b", Flags: 2}
	if !a.Equal(b) {
		t.Fatalf("expected modes equal by (width,height,refresh)")
	}
	c := Mode{Width: 1280, Height: 720, Refresh: 60}
	if a.Equal(c) {
		t.Fatalf("expected modes with different resolution to differ")
	}
}

func TestConnectorUsable(t *testing.T) {
	usable := &Connector{
		Status:        StatusConnected,
		PreferredMode: 0,
		Modes:         []Mode{{Width: 1920, Height: 1080, Refresh: 60}},
	}
	if !usable.Usable() {
		t.Fatalf("expected connected connector with a valid preferred mode to be usable")
	}

	disconnected := &Connector{Status: StatusDisconnected, PreferredMode: 0, Modes: []Mode{{Width: 1920, Height: 1080}}}
	if disconnected.Usable() {
		t.Fatalf("disconnected connector must not be usable")
	}

	noModes := &Connector{Status: StatusConnected, PreferredMode: -1}
	if noModes.Usable() {
		t.Fatalf("connector with no preferred mode must not be usable")
	}
}

func TestConnectorPreferredModeOrFirst(t *testing.T) {
	c := &Connector{PreferredMode: -1, Modes: []Mode{{Width: 800, Height: 600}, {Width: 1920, Height: 1080}}}
	m, ok := c.PreferredModeOrFirst()
	if !ok || !m.Equal(Mode{Width: 800, Height: 600}) {
		t.Fatalf("expected fallback to first mode, got %+v ok=%v", m, ok)
	}

	c.PreferredMode = 1
	m, ok = c.PreferredModeOrFirst()
	if !ok || !m.Equal(Mode{Width: 1920, Height: 1080}) {
		t.Fatalf("expected preferred mode at index 1, got %+v ok=%v", m, ok)
	}

	empty := &Connector{PreferredMode: -1}
	if _, ok := empty.PreferredModeOrFirst(); ok {
		t.Fatalf("expected no mode available for connector with an empty mode list")
	}
}

func TestHeadlessAdapterDefaultsResolution(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 0, 0)
	if !a.Headless() {
		t.Fatalf("expected Headless() true")
	}
	conns := a.Connectors()
	if len(conns) != 1 || !conns[0].Usable() {
		t.Fatalf("expected exactly one usable virtual connector, got %+v", conns)
	}
	mode, _ := conns[0].PreferredModeOrFirst()
	if mode.Width != 1920 || mode.Height != 1080 {
		t.Fatalf("expected default 1920x1080, got %dx%d", mode.Width, mode.Height)
	}
}

func TestHeadlessFramebufferLifecycle(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 640, 480)
	fb, err := a.CreateFramebuffer(640, 480)
	if err != nil {
		t.Fatalf("CreateFramebuffer: %v", err)
	}
	if len(fb.Pixels) != 640*480*4 {
		t.Fatalf("got %d pixel bytes, want %d", len(fb.Pixels), 640*480*4)
	}
	ctrl := a.Controllers()[0]
	if err := a.PageFlip(ctrl, fb); err != nil {
		t.Fatalf("PageFlip: %v", err)
	}
	if ctrl.CurrentFB != fb.ID {
		t.Fatalf("expected controller CurrentFB updated to %d, got %d", fb.ID, ctrl.CurrentFB)
	}

	flipped := false
	if err := a.HandleEvents(func(uint32) { flipped = true }); err != nil {
		t.Fatalf("HandleEvents: %v", err)
	}
	if !flipped {
		t.Fatalf("expected HandleEvents to report flip completion")
	}

	if err := a.DestroyFramebuffer(fb); err != nil {
		t.Fatalf("DestroyFramebuffer: %v", err)
	}
	if err := a.DestroyFramebuffer(fb); err == nil {
		t.Fatalf("expected error destroying an already-destroyed framebuffer")
	}
}

func TestHeadlessAdapterModeLadder(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 0, 0)
	conn := a.Connectors()[0]
	if len(conn.Modes) != 6 {
		t.Fatalf("expected preferred mode plus the 5 ladder rungs that differ from it (6 modes), got %d: %+v", len(conn.Modes), conn.Modes)
	}
	if conn.PreferredMode != 0 || !conn.Modes[0].Preferred || conn.Modes[0].Width != 1920 || conn.Modes[0].Height != 1080 {
		t.Fatalf("expected 1920x1080 preferred at index 0, got %+v", conn.Modes[0])
	}
	seen := make(map[[2]int]int)
	for _, m := range conn.Modes {
		seen[[2]int{m.Width, m.Height}]++
	}
	for res, count := range seen {
		if count > 1 {
			t.Fatalf("resolution %v appears %d times, want at most once", res, count)
		}
	}
	if seen[[2]int{640, 480}] != 1 {
		t.Fatalf("expected the ladder to reach down to 640x480, got %+v", conn.Modes)
	}
}

func TestHeadlessAdapterModeLadderOmitsDuplicatePreferred(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 1920, 1080)
	conn := a.Connectors()[0]
	count := 0
	for _, m := range conn.Modes {
		if m.Width == 1920 && m.Height == 1080 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected the caller-requested resolution to appear exactly once despite matching a ladder rung, got %d", count)
	}
}

func TestHeadlessAtomicRequestAppliesStagedProperties(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 640, 480)
	plane := a.Controllers()[0].Primary()
	if plane == nil {
		t.Fatalf("expected headless adapter to expose a primary plane")
	}

	req := a.Begin()
	if err := req.AddProperty(plane.ID, "FB_ID", 7); err != nil {
		t.Fatalf("AddProperty FB_ID: %v", err)
	}
	if err := req.AddProperty(plane.ID, "CRTC_ID", 1); err != nil {
		t.Fatalf("AddProperty CRTC_ID: %v", err)
	}
	if err := req.Commit(false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := plane.Properties["FB_ID"].Value; got != 7 {
		t.Fatalf("expected FB_ID committed to 7, got %d", got)
	}
	if got := plane.Properties["CRTC_ID"].Value; got != 1 {
		t.Fatalf("expected CRTC_ID committed to 1, got %d", got)
	}
}

func TestHeadlessAtomicRequestTestOnlyDoesNotMutate(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 640, 480)
	plane := a.Controllers()[0].Primary()

	req := a.Begin()
	if err := req.AddProperty(plane.ID, "FB_ID", 99); err != nil {
		t.Fatalf("AddProperty: %v", err)
	}
	if err := req.Commit(true); err != nil {
		t.Fatalf("Commit(testOnly=true): %v", err)
	}
	if got := plane.Properties["FB_ID"].Value; got != 0 {
		t.Fatalf("expected testOnly commit to leave FB_ID unmodified, got %d", got)
	}
}

func TestHeadlessAtomicRequestRejectsUnknownObjectOrProperty(t *testing.T) {
	a := NewHeadlessAdapter(discardLogger(), 640, 480)
	plane := a.Controllers()[0].Primary()

	if err := a.Begin().AddProperty(999999, "FB_ID", 1); err == nil {
		t.Fatalf("expected error for unknown object id")
	}
	if err := a.Begin().AddProperty(plane.ID, "NOT_A_REAL_PROPERTY", 1); err == nil {
		t.Fatalf("expected error for unknown property name")
	}
}
