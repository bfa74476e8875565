package oddsconv

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvertAsianToDecimalOdds(t *testing.T) {
	cases := []struct {
		name       string
		home, away string
		wantH      string
		wantA      string
	}{
		{"hk passthrough", "150", "850", "1.15", "1.85"},
		{"small values rescaled", "0.92", "0.96", "1.92", "1.96"},
		{"truncated to thousandths then floored", "0.8567", "0.9999", "1.85", "1.99"},
		{"margin transform", "1.2", "0.7", "2.25", "1.70"},
		{"margin transform mirrored", "0.7", "1.2", "1.70", "2.25"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, a, err := ConvertAsianToDecimalOdds(c.home, c.away)
			if err != nil {
				t.Fatal(err)
			}
			if h != c.wantH || a != c.wantA {
				t.Errorf("got %s/%s, want %s/%s", h, a, c.wantH, c.wantA)
			}
		})
	}
}

func TestConvertAsianToDecimalOdds_Deterministic(t *testing.T) {
	h1, a1, _ := ConvertAsianToDecimalOdds("0.83", "1.07")
	for i := 0; i < 50; i++ {
		h, a, _ := ConvertAsianToDecimalOdds("0.83", "1.07")
		if h != h1 || a != a1 {
			t.Fatalf("run %d: %s/%s != %s/%s", i, h, a, h1, a1)
		}
	}
}

func TestConvertAsianToDecimalOdds_SwapRoundTrip(t *testing.T) {
	pairs := [][2]string{{"150", "850"}, {"0.83", "1.07"}, {"1.2", "0.7"}, {"0.95", "0.95"}}
	for _, p := range pairs {
		h, a, err := ConvertAsianToDecimalOdds(p[0], p[1])
		if err != nil {
			t.Fatal(err)
		}
		sh, sa, err := ConvertAsianToDecimalOdds(p[1], p[0])
		if err != nil {
			t.Fatal(err)
		}
		if sh != a || sa != h {
			t.Errorf("%v: swapped %s/%s, want %s/%s", p, sh, sa, a, h)
		}
	}
}

func TestConvertAsianToDecimalOdds_MarketClosed(t *testing.T) {
	for _, in := range [][2]string{{"", "0.9"}, {"0", "0.9"}, {"0.9", "-1"}, {"abc", "0.9"}, {"0.9", " "}} {
		if _, _, err := ConvertAsianToDecimalOdds(in[0], in[1]); !errors.Is(err, ErrMarketClosed) {
			t.Errorf("%q: err = %v, want ErrMarketClosed", in, err)
		}
	}
}

func TestNormalizeHandicapLine(t *testing.T) {
	cases := []struct {
		raw        string
		homeStrong bool
		want       string
	}{
		{"0.5/1", true, "-0.75"},
		{"0.5/1", false, "0.75"},
		{"0 / 0.5", true, "-0.25"},
		{"1", true, "-1"},
		{"0", true, "0"},
		{"-0.5", false, "-0.5"},
	}
	for _, c := range cases {
		got, err := NormalizeHandicapLine(c.raw, c.homeStrong)
		if err != nil {
			t.Fatalf("%q: %v", c.raw, err)
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%q strong=%v: got %s, want %s", c.raw, c.homeStrong, got, c.want)
		}
	}
	for _, bad := range []string{"", "a/b", "0.5/1/1.5"} {
		if _, err := NormalizeHandicapLine(bad, true); !errors.Is(err, ErrMarketClosed) {
			t.Errorf("%q: err = %v", bad, err)
		}
	}
}

func TestNormalizeGoalLine(t *testing.T) {
	for raw, want := range map[string]string{"O 2.5/3": "2.75", "U2.5": "2.5", "大 3": "3", "9.5/10": "9.75"} {
		got, err := NormalizeGoalLine(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("%q: got %s, want %s", raw, got, want)
		}
	}
}

func TestSplitQuarter(t *testing.T) {
	got := SplitQuarter(decimal.RequireFromString("-0.75"))
	if len(got) != 2 || !got[0].Equal(decimal.RequireFromString("-1")) || !got[1].Equal(decimal.RequireFromString("-0.5")) {
		t.Errorf("SplitQuarter(-0.75) = %v", got)
	}
	if got := SplitQuarter(decimal.RequireFromString("2.5")); len(got) != 1 {
		t.Errorf("SplitQuarter(2.5) = %v", got)
	}
}

func TestFormatCondition(t *testing.T) {
	if got := FormatCondition(NegateCondition(decimal.Zero)); got != "0.00" {
		t.Errorf("got %s", got)
	}
	if got := FormatCondition(decimal.RequireFromString("-0.75")); got != "-0.75" {
		t.Errorf("got %s", got)
	}
}
