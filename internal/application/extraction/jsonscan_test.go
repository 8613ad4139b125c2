package extraction

import "testing"

func TestScanJSONObjectPlainObject(t *testing.T) {
	fields, ok := ScanJSONObject(`{"genre": "fantasy", "location": "Varn"}`)
	if !ok {
		t.Fatal("expected ok=true for a plain JSON object")
	}
	if fields["genre"] != "fantasy" || fields["location"] != "Varn" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestScanJSONObjectWrappedInProseAndFences(t *testing.T) {
	text := "Sure, here you go:\n```json\n{\"protagonist_name\": \"Mira\"}\n```\nLet me know if that helps."
	fields, ok := ScanJSONObject(text)
	if !ok {
		t.Fatal("expected ok=true for an object embedded in prose/fences")
	}
	if fields["protagonist_name"] != "Mira" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestScanJSONObjectIgnoresBracesInsideStrings(t *testing.T) {
	fields, ok := ScanJSONObject(`{"genre": "sci-fi { space opera }"}`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if fields["genre"] != "sci-fi { space opera }" {
		t.Errorf("genre = %q", fields["genre"])
	}
}

func TestScanJSONObjectDropsBlankStringValues(t *testing.T) {
	fields, ok := ScanJSONObject(`{"genre": "  ", "location": "Varn"}`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if _, present := fields["genre"]; present {
		t.Error("expected a blank string value to be dropped")
	}
	if fields["location"] != "Varn" {
		t.Errorf("location = %q", fields["location"])
	}
}

func TestScanJSONObjectNoObjectFound(t *testing.T) {
	if _, ok := ScanJSONObject("no json here at all"); ok {
		t.Error("expected ok=false when no braces are present")
	}
}

func TestScanJSONObjectUnbalancedBraces(t *testing.T) {
	if _, ok := ScanJSONObject(`{"genre": "fantasy"`); ok {
		t.Error("expected ok=false for an unbalanced object")
	}
}

func TestScanContradictionVerdictParsesArray(t *testing.T) {
	text := `Here's what I found:
{"contradictions": [{"severity": "WARN", "message": "eye color changed"}, {"severity": "ERROR", "message": "character died twice"}]}`

	verdicts, ok := ScanContradictionVerdict(text)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	if verdicts[0].Severity != "WARN" || verdicts[1].Severity != "ERROR" {
		t.Errorf("verdicts = %+v", verdicts)
	}
}

func TestScanContradictionVerdictNoObjectFound(t *testing.T) {
	if _, ok := ScanContradictionVerdict("nothing to see here"); ok {
		t.Error("expected ok=false when no braces are present")
	}
}
