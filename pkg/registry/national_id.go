package registry

// ValidNationalID checks an 11-digit Turkish identity number including its
// two check digits.
func ValidNationalID(id string) bool {
	if len(id) != 11 || id[0] == '0' {
		return false
	}
	var digits [11]int
	for i := 0; i < 11; i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
	}

	odd := digits[0] + digits[2] + digits[4] + digits[6] + digits[8]
	even := digits[1] + digits[3] + digits[5] + digits[7]
	tenth := ((odd*7-even)%10 + 10) % 10
	if tenth != digits[9] {
		return false
	}

	sum := 0
	for i := 0; i < 10; i++ {
		sum += digits[i]
	}
	return sum%10 == digits[10]
}
