package mailer

import (
	"fmt"
	"sort"
	"strings"

	"contact-form-service-go/internal/model"
)

// renderMessageBody renders the submitted fields as plain text, declared
// fields first in schema order, any extra fields after them.
func (m *Mailer) renderMessageBody(msg *model.ContactMessage) string {
	var b strings.Builder

	seen := make(map[string]bool, len(msg.Data))
	for _, name := range m.opts.FieldOrder {
		if v, ok := msg.Data[name]; ok {
			writeField(&b, name, v)
			seen[name] = true
		}
	}

	extra := make([]string, 0, len(msg.Data))
	for name := range msg.Data {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		writeField(&b, name, msg.Data[name])
	}

	if msg.IPAddress != "" {
		b.WriteString("\r\n")
		fmt.Fprintf(&b, "IP: %s\r\n", msg.IPAddress)
	}
	if msg.UserAgent != "" {
		fmt.Fprintf(&b, "User-Agent: %s\r\n", msg.UserAgent)
	}

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if name == "" {
		return
	}
	label := strings.ToUpper(name[:1]) + name[1:]
	if strings.Contains(value, "\n") {
		fmt.Fprintf(b, "%s:\r\n%s\r\n\r\n", label, value)
	} else {
		fmt.Fprintf(b, "%s: %s\r\n", label, value)
	}
}
