// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package money formats integer cent amounts for display.
//
// Amounts are always carried as int64 cents; floating point never touches a price.
package money

import "fmt"

// Format renders cents as a dollar label, e.g. 1250 → "$12.50".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
