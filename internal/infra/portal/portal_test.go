package portal

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestDecodeColorScheme(t *testing.T) {
	tests := []struct {
		name    string
		value   dbus.Variant
		dark    bool
		wantErr bool
	}{
		{"no preference", dbus.MakeVariant(uint32(0)), false, false},
		{"prefer dark", dbus.MakeVariant(uint32(1)), true, false},
		{"prefer light", dbus.MakeVariant(uint32(2)), false, false},
		{"nested variant from Read", dbus.MakeVariant(dbus.MakeVariant(uint32(1))), true, false},
		{"wrong type", dbus.MakeVariant("dark"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dark, err := decodeColorScheme(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if dark != tt.dark {
				t.Errorf("expected dark=%v, got %v", tt.dark, dark)
			}
		})
	}
}

func TestParseSettingChanged(t *testing.T) {
	signal := func(name, namespace, key string, value interface{}) *dbus.Signal {
		return &dbus.Signal{
			Name: name,
			Body: []interface{}{namespace, key, value},
		}
	}

	tests := []struct {
		name   string
		sig    *dbus.Signal
		dark   bool
		wantOK bool
	}{
		{
			name:   "dark",
			sig:    signal(settingChangedID, appearanceNamespace, colorSchemeKey, dbus.MakeVariant(uint32(1))),
			dark:   true,
			wantOK: true,
		},
		{
			name:   "light",
			sig:    signal(settingChangedID, appearanceNamespace, colorSchemeKey, dbus.MakeVariant(uint32(2))),
			dark:   false,
			wantOK: true,
		},
		{
			name: "other key",
			sig:  signal(settingChangedID, appearanceNamespace, "accent-color", dbus.MakeVariant(uint32(1))),
		},
		{
			name: "other namespace",
			sig:  signal(settingChangedID, "org.gnome.desktop.interface", colorSchemeKey, dbus.MakeVariant(uint32(1))),
		},
		{
			name: "other signal",
			sig:  signal("org.freedesktop.DBus.NameOwnerChanged", appearanceNamespace, colorSchemeKey, dbus.MakeVariant(uint32(1))),
		},
		{
			name: "value not a variant",
			sig:  signal(settingChangedID, appearanceNamespace, colorSchemeKey, uint32(1)),
		},
		{
			name: "short body",
			sig:  &dbus.Signal{Name: settingChangedID, Body: []interface{}{appearanceNamespace}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dark, ok := parseSettingChanged(tt.sig)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if dark != tt.dark {
				t.Errorf("expected dark=%v, got %v", tt.dark, dark)
			}
		})
	}
}
