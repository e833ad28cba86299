package models

import "fmt"

// SalaryNotSpecified is shown when neither bound is usable
const SalaryNotSpecified = "Зарплата не указана"

// FormatSalary renders a salary range in roubles. Nil and zero bounds are treated as
// unpublished.
func FormatSalary(from, to *int) string {
	f, t := intOr(from, 0), intOr(to, 0)

	switch {
	case f != 0 && t != 0:
		if f == t && f > 0 {
			return fmt.Sprintf("%d ₽", f)
		}
		return fmt.Sprintf("%d — %d ₽", f, t)
	case f > 0:
		return fmt.Sprintf("от %d ₽", f)
	case t > 0:
		return fmt.Sprintf("до %d ₽", t)
	default:
		return SalaryNotSpecified
	}
}
