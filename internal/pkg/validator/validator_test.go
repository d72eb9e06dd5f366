package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestStruct_DateTag(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023"}
	for _, d := range valid {
		if err := Struct(clockPayload{Reason: "x", Date: d}); err != nil {
			t.Errorf("Struct(date=%q) = %v, want nil", d, err)
		}
	}
	for _, d := range invalid {
		if err := Struct(clockPayload{Reason: "x", Date: d}); err == nil {
			t.Errorf("Struct(date=%q) = nil, want error", d)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "phone", Message: "required"},
	}
	got := errs.Error()
	want := "email: invalid; phone: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "phone", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"email": "invalid", "phone": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

type clockPayload struct {
	Reason    string   `json:"reason" validate:"required,max=500"`
	Date      string   `json:"date" validate:"required,date"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Internal  string   `json:"-"`
}

func TestStruct_Valid(t *testing.T) {
	lat, lon := 14.5995, 120.9842
	err := Struct(clockPayload{Reason: "traffic", Date: "2025-03-10", Latitude: &lat, Longitude: &lon})
	if err != nil {
		t.Errorf("Struct() = %v, want nil", err)
	}
}

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	lat := 120.0
	err := Struct(clockPayload{Date: "10/03/2025", Latitude: &lat})

	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Struct() error type = %T, want ValidationErrors", err)
	}
	got := errs.ToMap()
	want := map[string]string{
		"reason":   "reason is required",
		"date":     "date must be in YYYY-MM-DD format",
		"latitude": "latitude must be between -90 and 90",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
	if _, found := got["longitude"]; found {
		t.Errorf("nil optional longitude should not be reported")
	}
}

func TestMerge(t *testing.T) {
	if err := Merge(nil, nil); err != nil {
		t.Errorf("Merge(nil, nil) = %v, want nil", err)
	}

	extra := ValidationErrors{{Field: "photo", Message: "photo is required"}}
	err := Merge(Struct(clockPayload{Date: "2025-03-10"}), extra)
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Merge() error type = %T, want ValidationErrors", err)
	}
	if len(errs) != 2 {
		t.Errorf("Merge() len = %d, want 2", len(errs))
	}
}
