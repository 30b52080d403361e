package docscan

import "testing"

func TestFindLicenseNumberLabeled(t *testing.T) {
	text := "MEDICAL COUNCIL\nDr. A. Example\nLicense No: MD-482910\nValid until 2027"
	got, ok := FindLicenseNumber(text)
	if !ok {
		t.Fatalf("no license number found")
	}
	if got != "MD-482910" {
		t.Fatalf("expected MD-482910 got %s", got)
	}
}

func TestFindLicenseNumberLabelVariants(t *testing.T) {
	cases := map[string]string{
		"Reg. No. 1234567":                   "1234567",
		"Registration Number: KA/2019/55821": "KA/2019/55821",
		"LIC NO # GMC7781234":                "GMC7781234",
		"licence no: tn-44821":               "TN-44821",
	}
	for in, want := range cases {
		got, ok := FindLicenseNumber(in)
		if !ok {
			t.Fatalf("%q: no license number found", in)
		}
		if got != want {
			t.Fatalf("%q: expected %s got %s", in, want, got)
		}
	}
}

func TestFindLicenseNumberBarePattern(t *testing.T) {
	// No label, but a code-shaped token should still be picked up.
	got, ok := FindLicenseNumber("STATE MEDICAL BOARD CERT MD48291")
	if !ok {
		t.Fatalf("no license number found")
	}
	if got != "MD48291" {
		t.Fatalf("expected MD48291 got %s", got)
	}
}

func TestFindLicenseNumberRejectsNoise(t *testing.T) {
	for _, text := range []string{
		"",
		"no numbers here at all",
		"License No: AB",    // too short
		"License No: ABCDE", // no digits
	} {
		if got, ok := FindLicenseNumber(text); ok {
			t.Fatalf("%q: expected no match, got %s", text, got)
		}
	}
}

func TestSupportedImage(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.png": true,
		"d.pdf": false, "e.txt": false, "f": false,
	} {
		if got := SupportedImage(name); got != want {
			t.Fatalf("SupportedImage(%q) = %v, want %v", name, got, want)
		}
	}
}
