package transport

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestConfigWithDefaults(t *testing.T) {
	got := (*Config)(nil).withDefaults()
	want := DefaultConfig()
	if got.ReadTimeout != want.ReadTimeout || got.WriteTimeout != want.WriteTimeout ||
		got.MaxMessageSize != want.MaxMessageSize || got.CheckOrigin == nil {
		t.Errorf("nil config defaults = %+v", got)
	}

	custom := &Config{ReadTimeout: time.Second, MaxMessageSize: 512}
	got = custom.withDefaults()
	if got.ReadTimeout != time.Second || got.MaxMessageSize != 512 {
		t.Errorf("custom values overwritten: %+v", got)
	}
	if got.WriteTimeout != want.WriteTimeout || got.ReadBufferSize != want.ReadBufferSize {
		t.Errorf("unset values not filled: %+v", got)
	}
	if custom.WriteTimeout != 0 {
		t.Error("withDefaults modified its receiver")
	}
}

func TestOriginChecks(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"no_origin", nil, "", true},
		{"same_origin_http", nil, "http://example.com", true},
		{"same_origin_https", nil, "https://example.com", true},
		{"cross_origin", nil, "http://other.example", false},
		{"listed", []string{"http://other.example"}, "http://other.example", true},
		{"not_listed", []string{"http://other.example"}, "http://third.example", false},
		{"wildcard", []string{"*"}, "http://anything.example", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://example.com/bridge", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if got := AllowOrigins(tc.origins)(r); got != tc.want {
				t.Errorf("AllowOrigins(%v)(%q) = %v, want %v", tc.origins, tc.origin, got, tc.want)
			}
		})
	}
}
