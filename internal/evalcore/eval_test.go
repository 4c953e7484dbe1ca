package evalcore

import "testing"

func TestValueEqualCoercesNumericStrings(t *testing.T) {
	a := StringVal("42")
	b := NumberVal(42)
	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
}

func TestValueEqualNullOnlyEqualsNull(t *testing.T) {
	if StringVal("").Equal(Null()) {
		t.Errorf("empty string must not equal null")
	}
	if !Null().Equal(Null()) {
		t.Errorf("null must equal null")
	}
}

func TestMatchLikeWildcards(t *testing.T) {
	ok, err := MatchLike("Hello World", "hello%")
	if err != nil {
		t.Fatalf("MatchLike: %v", err)
	}
	if !ok {
		t.Errorf("expected hello%% to match case-insensitively")
	}
	ok, err = MatchLike("abc", "a_c")
	if err != nil || !ok {
		t.Errorf("expected a_c to match abc, got ok=%v err=%v", ok, err)
	}
}

func TestMatchRegex(t *testing.T) {
	ok, err := MatchRegex("item-042", `^item-\d+$`)
	if err != nil {
		t.Fatalf("MatchRegex: %v", err)
	}
	if !ok {
		t.Errorf("expected regex to match")
	}
}

func TestTokenClassMatch(t *testing.T) {
	if !tokenClassMatch("btn btn-primary active", "btn-primary") {
		t.Errorf("expected token match")
	}
	if tokenClassMatch("btn btn-primary", "btn-secondary") {
		t.Errorf("expected no match for absent token")
	}
}
