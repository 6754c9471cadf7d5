package domain

import "testing"

func TestTypeRegistry_DefaultTags(t *testing.T) {
	reg := NewTypeRegistry()

	cases := []struct {
		nodeType string
		want     NodeTag
	}{
		{"Reroute", TagReroute},
		{"PrimitiveNode", TagPrimitive},
		{"SetNode", TagSet},
		{"GetNode", TagGet},
		{"KSampler", TagRegular},
	}

	for _, tc := range cases {
		if got := reg.Tag(tc.nodeType); got != tc.want {
			t.Errorf("Tag(%q) = %v, want %v", tc.nodeType, got, tc.want)
		}
	}
}

func TestTypeRegistry_Register(t *testing.T) {
	reg := NewTypeRegistry()
	reg.Register("MyReroute", TagReroute)

	n := reg.NewNode(1, "MyReroute")
	if n.Tag != TagReroute {
		t.Errorf("expected TagReroute, got %v", n.Tag)
	}
	if n.Mode != ModeAlways {
		t.Errorf("new node must start in ModeAlways, got %v", n.Mode)
	}
}

func TestNodeTag_IsVirtual(t *testing.T) {
	if !TagReroute.IsVirtual() || !TagPrimitive.IsVirtual() {
		t.Error("reroute and primitive are virtual")
	}
	if TagRegular.IsVirtual() || TagSet.IsVirtual() || TagGet.IsVirtual() {
		t.Error("regular, set and get are not virtual")
	}
}
