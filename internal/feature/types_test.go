package feature

import "testing"

func TestGoldPrecedence(t *testing.T) {
	cases := []struct {
		name string
		ex   LabeledExample
		want string
	}{
		{"gold_rating wins", LabeledExample{GoldRating: "Perfect", Label: "Good", Rating: "Acceptable"}, "Perfect"},
		{"label beats rating", LabeledExample{Label: "Good", Rating: "Acceptable"}, "Good"},
		{"rating is the last resort", LabeledExample{Rating: "Acceptable"}, "Acceptable"},
		{"unlabeled is empty", LabeledExample{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ex.Gold(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
