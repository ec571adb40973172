package reports

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// DefaultSignature is appended to chat messages; %s receives the generation time
const DefaultSignature = "\n\nGenerated on %s"

// SignatureTimeLayout renders the generation time in signatures
const SignatureTimeLayout = "02-Jan-2006 15:04"

// FormatText renders a report as monospaced chat text.
// An empty signature uses DefaultSignature.
func FormatText(r *Report, signature string) string {
	if signature == "" {
		signature = DefaultSignature
	}

	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n")

	for _, s := range r.Sections {
		b.WriteString("\n")
		b.WriteString(s.Heading)
		b.WriteString("\n")
		if len(s.Rows) == 0 {
			b.WriteString("(none)\n")
			continue
		}

		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(s.Columns, "\t"))
		for _, row := range s.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		_ = tw.Flush()
	}

	if strings.Contains(signature, "%s") {
		b.WriteString(fmt.Sprintf(signature, r.GeneratedAt.Format(SignatureTimeLayout)))
	} else {
		b.WriteString(signature)
	}
	return b.String()
}
