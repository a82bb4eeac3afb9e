// Package reply builds and posts the bot's long-form replies: pagination to
// fit the platform's comment length ceiling, the standard footer, and
// chaining pages into a linear reply thread.
package reply

import "strings"

// placeholder marks the wrap point when a single line is longer than a whole
// page and has to be split at a word boundary.
const placeholder = ` \[...\]`

// Wrap splits blob into pages of at most maxChars characters using greedy
// line packing. Lines are kept whole when they fit; a line longer than a page
// is word-wrapped with a placeholder at each cut. Returns nil for an empty
// blob or a non-positive maxChars.
func Wrap(blob string, maxChars int) []string {
	if maxChars <= 0 || blob == "" {
		return nil
	}

	var pages []string
	page := ""

	for _, line := range strings.Split(blob, "\n") {
		for {
			sep := ""
			if page != "" {
				sep = "\n"
			}

			if len(page)+len(sep)+len(line) <= maxChars {
				// The whole line fits on the current page.
				page += sep + line
				break
			}

			if len(line) > maxChars {
				room := maxChars - len(page) - len(sep) - len(placeholder)
				if room < 1 {
					if page == "" {
						// maxChars is smaller than the placeholder
						// itself; all we can do is hard-cut.
						pages = append(pages, line[:maxChars])
						line = line[maxChars:]
						continue
					}
					pages = append(pages, page)
					page = ""
					continue
				}

				// Take the largest word-bounded prefix that leaves room
				// for the placeholder, then treat the remainder as a
				// fresh line.
				head, rest := splitAtBoundary(line, room)
				pages = append(pages, page+sep+head+placeholder)
				page = ""
				line = rest
				continue
			}

			// The line fits within a page on its own, just not on this
			// one. Close out the page and retry.
			pages = append(pages, page)
			page = ""
		}
	}

	if page != "" {
		pages = append(pages, page)
	}
	return pages
}

// splitAtBoundary cuts line at the largest whitespace boundary at or before
// room characters. When the first word alone is wider than room, it falls
// back to a hard cut so the caller always makes progress.
func splitAtBoundary(line string, room int) (head, rest string) {
	if room >= len(line) {
		return line, ""
	}
	cut := strings.LastIndexAny(line[:room+1], " \t")
	if cut < 1 {
		cut = room
	}
	head = strings.TrimRight(line[:cut], " \t")
	rest = strings.TrimLeft(line[cut:], " \t")
	return head, rest
}
