package settings

import "testing"

func TestMicrometersParsesAbsentAsZero(t *testing.T) {
	s := Settings{}
	v, err := s.Micrometers("wall_line_width")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("expected 0, got %v", v)
	}
}

func TestMicrometersParsesValue(t *testing.T) {
	s := Settings{"wall_line_width": "400"}
	v, err := s.Micrometers("wall_line_width")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 400 {
		t.Errorf("expected 400, got %v", v)
	}
}

func TestEnumRejectsUnknownValue(t *testing.T) {
	s := Settings{"retraction_combing": "bogus"}
	_, err := s.Enum("retraction_combing", "off", "all", "no_skin", "infill")
	if err == nil {
		t.Fatalf("expected an error for an out-of-enum value")
	}
}

func TestEnumAcceptsKnownValue(t *testing.T) {
	s := Settings{"retraction_combing": "infill"}
	v, err := s.Enum("retraction_combing", "off", "all", "no_skin", "infill")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "infill" {
		t.Errorf("expected %q, got %q", "infill", v)
	}
}
