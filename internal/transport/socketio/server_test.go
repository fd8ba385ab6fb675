package socketio

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/edumarques81/practice-timer-backend/internal/domain/playback"
	"github.com/edumarques81/practice-timer-backend/internal/domain/theme"
	"github.com/edumarques81/practice-timer-backend/internal/infra/prefs"
)

func newTestServer(t *testing.T) (*Server, *theme.Controller, *playback.Tracker, *ClassIndicator, *ClientPreference) {
	t.Helper()

	indicator := NewClassIndicator()
	system := NewClientPreference()
	ctrl := theme.NewController(theme.Environment{
		Storage:   prefs.NewMemory(),
		System:    system,
		Indicator: indicator,
	})
	tracker := playback.NewTracker()

	server, err := NewServer(ctrl, tracker, Options{
		Indicator:          indicator,
		SystemPreference:   system,
		MaxExternalClients: 2,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return server, ctrl, tracker, indicator, system
}

func TestNewServer(t *testing.T) {
	server, _, _, _, _ := newTestServer(t)

	if server == nil {
		t.Fatal("NewServer should return a non-nil server")
	}
	if server.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", server.ClientCount())
	}
}

func TestServerBroadcastsWithoutClients(t *testing.T) {
	_, ctrl, tracker, indicator, _ := newTestServer(t)

	// Store changes broadcast to nobody; this must not panic.
	ctrl.Toggle()
	tracker.SetPlaying("etude-3")
	tracker.StopAll()

	if enabled, known := indicator.Last(); !known || !enabled {
		t.Error("expected indicator to record the dark class")
	}
}

func TestServerCloseUnsubscribes(t *testing.T) {
	indicator := NewClassIndicator()
	ctrl := theme.NewController(theme.Environment{})
	tracker := playback.NewTracker()

	server, err := NewServer(ctrl, tracker, Options{Indicator: indicator})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close should not error: %v", err)
	}

	// Changes after Close reach no server.
	ctrl.Toggle()
	tracker.SetPlaying("x")
}

func TestSystemReportFollowedUntilChoice(t *testing.T) {
	storage := prefs.NewMemory()
	system := NewClientPreference()
	ctrl := theme.NewController(theme.Environment{Storage: storage, System: system})

	// Startup persisted a baseline; clear it to simulate a fresh profile.
	storage.Delete(theme.StorageKey)

	system.Report(true)
	if !ctrl.IsDark() {
		t.Error("expected client report to apply without a saved preference")
	}

	// The auto-applied value was persisted, so later reports are ignored.
	system.Report(false)
	if !ctrl.IsDark() {
		t.Error("expected report to be ignored once a preference is saved")
	}
}

func TestClientReportAppliedAfterReset(t *testing.T) {
	storage := prefs.NewMemory()
	system := NewClientPreference()
	ctrl := theme.NewController(theme.Environment{Storage: storage, System: system})

	// Startup saved a light baseline before any client reported.
	system.Report(true)
	if ctrl.IsDark() {
		t.Fatal("expected report to be ignored while the baseline is saved")
	}

	ctrl.Reset()
	if !ctrl.IsDark() {
		t.Error("expected reset to adopt the last client report")
	}

	system.Report(false)
	if ctrl.IsDark() {
		t.Error("expected client report after reset to apply")
	}
	if v, _, _ := storage.Get(theme.StorageKey); v != theme.ValueLight {
		t.Errorf("expected %q persisted, got %q", theme.ValueLight, v)
	}
}

func TestClassIndicatorEmitsAndReplays(t *testing.T) {
	indicator := NewClassIndicator()

	var broadcasts []map[string]interface{}
	indicator.attach(func(ev string, args ...any) {
		if ev != "pushThemeClass" {
			t.Errorf("unexpected event %q", ev)
		}
		broadcasts = append(broadcasts, args[0].(map[string]interface{}))
	})

	// Nothing to replay yet.
	replayed := 0
	indicator.replay(func(string, ...any) { replayed++ })
	if replayed != 0 {
		t.Errorf("expected no replay before first update, got %d", replayed)
	}

	indicator.SetDark(true)
	indicator.SetDark(false)

	want := []map[string]interface{}{
		{"className": theme.IndicatorClass, "enabled": true},
		{"className": theme.IndicatorClass, "enabled": false},
	}
	if diff := deep.Equal(broadcasts, want); diff != nil {
		t.Error(diff)
	}

	var last map[string]interface{}
	indicator.replay(func(ev string, args ...any) { last = args[0].(map[string]interface{}) })
	if diff := deep.Equal(last, want[1]); diff != nil {
		t.Errorf("replay: %v", diff)
	}
}

func TestClientPreferenceReportsChangesOnly(t *testing.T) {
	p := NewClientPreference()

	var got []bool
	p.OnChange(func(dark bool) { got = append(got, dark) })

	p.Report(false) // unchanged from default
	p.Report(true)
	p.Report(true)
	p.Report(false)

	if diff := deep.Equal(got, []bool{true, false}); diff != nil {
		t.Error(diff)
	}
	if p.PrefersDark() {
		t.Error("expected last reported preference to be light")
	}
}

func TestBoolArg(t *testing.T) {
	tests := []struct {
		name   string
		args   []any
		want   bool
		wantOK bool
	}{
		{"map true", []any{map[string]interface{}{"value": true}}, true, true},
		{"map false", []any{map[string]interface{}{"value": false}}, false, true},
		{"bare bool", []any{true}, true, true},
		{"missing key", []any{map[string]interface{}{"other": true}}, false, false},
		{"wrong type", []any{map[string]interface{}{"value": "true"}}, false, false},
		{"no args", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := boolArg(tt.args, "value")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("boolArg = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStringArg(t *testing.T) {
	if id, ok := stringArg([]any{map[string]interface{}{"id": "drone"}}, "id"); !ok || id != "drone" {
		t.Errorf("expected drone, got %q ok=%v", id, ok)
	}
	if id, ok := stringArg([]any{"scale"}, "id"); !ok || id != "scale" {
		t.Errorf("expected scale, got %q ok=%v", id, ok)
	}
	if _, ok := stringArg([]any{float64(3)}, "id"); ok {
		t.Error("expected numeric payload to be rejected")
	}
	if _, ok := stringArg(nil, "id"); ok {
		t.Error("expected empty args to be rejected")
	}
}
