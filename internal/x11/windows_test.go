package x11

import (
	"errors"
	"strings"
	"testing"
)

func TestSetProperties(t *testing.T) {
	ok := func() error { return nil }
	refused := errors.New("BadAtom")

	if err := setProperties("main", []propertySetter{{"_NET_WM_NAME", ok}, {"WM_CLASS", ok}}); err != nil {
		t.Fatalf("setProperties() with no failures = %v", err)
	}

	var ran []string
	track := func(name string, err error) propertySetter {
		return propertySetter{name, func() error {
			ran = append(ran, name)
			return err
		}}
	}
	err := setProperties("monitor-1", []propertySetter{
		track("_NET_WM_WINDOW_TYPE", nil),
		track("_NET_WM_STATE", refused),
		track("_NET_WM_DESKTOP", refused),
		track("_NET_WM_NAME", nil),
	})

	if len(ran) != 4 {
		t.Fatalf("setters run = %v, want all four after a failure", ran)
	}
	var propErr *PropertyError
	if !errors.As(err, &propErr) {
		t.Fatalf("setProperties() error = %T %v, want *PropertyError", err, err)
	}
	if propErr.Label != "monitor-1" || !errors.Is(err, refused) {
		t.Fatalf("PropertyError = %+v", propErr)
	}
	msg := err.Error()
	for _, want := range []string{"_NET_WM_STATE", "_NET_WM_DESKTOP"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not name %s", msg, want)
		}
	}
	if strings.Contains(msg, "_NET_WM_NAME") {
		t.Errorf("error %q names a property that was set", msg)
	}
}
