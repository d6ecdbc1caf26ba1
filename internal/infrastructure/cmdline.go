package infrastructure

import "strings"

// shellSpecial lists the characters that make an argument need quoting
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// QuoteArg renders one argument so a logged command line can be pasted
// back into a POSIX shell. Only used for logs; exec never goes through a shell.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// CommandLine renders a binary and its arguments for the engine log
func CommandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArg(binary))
	for _, a := range args {
		parts = append(parts, QuoteArg(a))
	}
	return strings.Join(parts, " ")
}

// escapeOutputTemplate protects literal percent signs in a path handed to
// yt-dlp as an output template
func escapeOutputTemplate(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}
