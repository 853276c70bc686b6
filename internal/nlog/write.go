package nlog

import "strings"

// String returns a log line as a string.
func String(
	ids []IconWithLabel,
	icons []Icon,
	text ...string,
) string {
	w := &strings.Builder{}

	for _, v := range ids {
		w.WriteString(v.String())
		w.WriteString("  ")
	}

	for _, v := range icons {
		if v == "" {
			w.WriteString(" ")
		} else {
			w.WriteString(v.String())
		}

		w.WriteString(" ")
	}

	i := 0
	for _, v := range text {
		if v == "" {
			continue
		}

		w.WriteString(" ")

		if i > 0 {
			w.WriteString(SeparatorIcon.String())
			w.WriteString(" ")
		}

		w.WriteString(v)
		i++
	}

	return w.String()
}
