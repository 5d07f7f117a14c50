package service

import "testing"

func TestCheckFunds(t *testing.T) {
	ladder, err := ComputeLadder(testParams(), dec("100000000"))
	if err != nil {
		t.Fatalf("ComputeLadder: %v", err)
	}
	// лесенка 6000+7000+8000 = 21000

	cases := []struct {
		name       string
		free       string
		reserved   string
		sufficient bool
	}{
		{"free alone covers", "25000", "0", true},
		{"reserved tops up free", "15000", "10000", true},
		{"exactly enough", "21000", "0", true},
		{"short by one", "20999", "0", false},
		{"nothing at all", "0", "0", false},
		{"reserved alone covers", "0", "21000", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := CheckFunds(ladder, dec(tc.free), dec(tc.reserved))
			if check.Sufficient != tc.sufficient {
				t.Errorf("Sufficient = %v, want %v", check.Sufficient, tc.sufficient)
			}
			if !check.Required.Equal(dec("21000")) {
				t.Errorf("Required = %s, want 21000", check.Required)
			}
			if !check.Available.Equal(dec(tc.free).Add(dec(tc.reserved))) {
				t.Errorf("Available = %s, want free+reserved", check.Available)
			}
		})
	}
}

func TestCheckFundsEmptyLadder(t *testing.T) {
	check := CheckFunds(Ladder{}, dec("0"), dec("0"))
	if !check.Sufficient {
		t.Error("empty ladder must always be sufficient")
	}
	if !check.Required.IsZero() {
		t.Errorf("Required = %s, want 0", check.Required)
	}
}
