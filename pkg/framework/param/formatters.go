package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Formatters receive plain values; parsers return plain values.

// FrequencyFormatter shows Hz below 1 kHz and kHz above.
func FrequencyFormatter(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// FrequencyParser accepts "440", "440 Hz" and "1.2 kHz".
func FrequencyParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	scale := 1.0
	if strings.HasSuffix(str, "khz") {
		scale = 1000
		str = strings.TrimSuffix(str, "khz")
	}
	str = strings.TrimSuffix(str, "hz")
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return v * scale, nil
}

// GainFormatter shows a linear gain in decibels.
func GainFormatter(gain float64) string {
	if gain <= 0.001 {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", 20*math.Log10(gain))
}

// GainParser accepts decibel text and returns linear gain.
func GainParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if strings.Contains(str, "∞") || strings.Contains(str, "inf") {
		return 0, nil
	}
	str = strings.TrimSuffix(strings.TrimSuffix(str, "dB"), "db")
	db, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return math.Pow(10, db/20), nil
}

// PercentFormatter shows a 0-1 value as a percentage.
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value*100)
}

// PercentParser is the inverse of PercentFormatter.
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

// SecondsFormatter shows a duration in seconds using ms below one second.
func SecondsFormatter(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.1f ms", s*1000)
	}
	return fmt.Sprintf("%.2f s", s)
}

// SecondsParser accepts "250 ms", "1.5 s" or a bare number of seconds.
func SecondsParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	scale := 1.0
	switch {
	case strings.HasSuffix(str, "ms"):
		scale = 0.001
		str = strings.TrimSuffix(str, "ms")
	case strings.HasSuffix(str, "s"):
		str = strings.TrimSuffix(str, "s")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return v * scale, nil
}

// OnOffFormatter formats boolean as On/Off
func OnOffFormatter(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("expected 'on' or 'off', got: %s", str)
	}
}
