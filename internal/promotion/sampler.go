package promotion

import "github.com/radieske/surebet-promoter/internal/settings"

// Visible decide se a n-ésima decisão do dia (base 0, só não-skip) é exibida
func Visible(ratio settings.FilterRatio, n int) bool {
	switch ratio {
	case "1/4":
		return n%4 == 0
	case "1/2":
		return n%2 == 0
	case "3/4":
		return n%4 != 3
	}
	return true
}
