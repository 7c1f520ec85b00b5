package progress

import (
	"fmt"
	"os"
)

// cliProgress writes a single updating status line to stderr.
type cliProgress struct {
	label string
	total int
	count int
}

func (p *cliProgress) Advance(n int) {
	p.count += n
	if p.total > 0 {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d", p.label, p.count, p.total)
	} else {
		fmt.Fprintf(os.Stderr, "\r%s %d", p.label, p.count)
	}
}

func (p *cliProgress) Finish() {
	fmt.Fprintf(os.Stderr, "\r%s done\n", p.label)
}

// CLIIndeterminate returns a stderr spinner-style indicator.
func CLIIndeterminate(label string) Progress {
	fmt.Fprintf(os.Stderr, "%s ", label)
	return &cliProgress{label: label}
}

// CLIDeterminate returns a stderr indicator with a known total.
func CLIDeterminate(label string, total int) Progress {
	return &cliProgress{label: label, total: total}
}

// CLICounter returns a stderr running-count indicator.
func CLICounter(label string) Progress {
	return &cliProgress{label: label}
}
