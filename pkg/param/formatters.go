package param

import "fmt"

func defaultFormat(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

// FrequencyFormatter formats a frequency value in Hz or kHz.
func FrequencyFormatter(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2f kHz", v/1000.0)
	}
	return fmt.Sprintf("%.1f Hz", v)
}

// PercentFormatter formats a 0-100 value as a percentage.
func PercentFormatter(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

// TimeFormatter formats a millisecond value, switching to seconds above 1s.
func TimeFormatter(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2f s", v/1000.0)
	}
	return fmt.Sprintf("%.1f ms", v)
}

// DecibelFormatter formats a dB value.
func DecibelFormatter(v float64) string {
	return fmt.Sprintf("%.1f dB", v)
}
