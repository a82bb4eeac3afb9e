// Package classify derives the conversational context of a reply from the
// observable state of its ancestors: the parent comment's body and the
// parent post's flair. Nothing here is cached or stored; the same comment
// always classifies the same way against the same ancestor state. This keeps
// per-comment state out of the database entirely.
package classify

import "strings"

// Context is the classification of a reply's surroundings, driving which
// workflow transition the router may fire.
type Context int

const (
	// Unmatched covers completed, meta, and any other state the router
	// deliberately stays silent on.
	Unmatched Context = iota

	// CodeOfConduct means the reply answers our code-of-conduct prompt.
	CodeOfConduct

	// Claimable means the reply sits under a post nobody has claimed yet.
	Claimable

	// Claimed means the reply sits under a post someone is working on.
	Claimed
)

func (c Context) String() string {
	switch c {
	case CodeOfConduct:
		return "code_of_conduct"
	case Claimable:
		return "claimable"
	case Claimed:
		return "claimed"
	default:
		return "unmatched"
	}
}

// IsCodeOfConductBody reports whether text is our code-of-conduct prompt.
// The prompt is recognized by its own wording rather than a stored marker;
// this predicate is the single place that convention lives.
func IsCodeOfConductBody(text string) bool {
	return strings.Contains(strings.ToLower(text), "code of conduct")
}

// IsClaimableFlair reports whether a post flair marks the post unclaimed.
func IsClaimableFlair(flair string) bool {
	return strings.Contains(strings.ToLower(flair), "unclaimed")
}

// IsClaimedFlair reports whether a post flair marks the post in progress.
func IsClaimedFlair(flair string) bool {
	return strings.Contains(strings.ToLower(flair), "in progress")
}

// transcriptionMarker is the escaped start of the volunteer footer that every
// finished transcription carries.
const transcriptionMarker = "^^i'm&#32;a&#32;human&#32;volunteer&#32;"

// IsTranscriptionBody reports whether text carries the volunteer footer,
// i.e. whether it is a finished transcription.
func IsTranscriptionBody(text string) bool {
	return strings.Contains(strings.ToLower(text), transcriptionMarker)
}

// Classify maps a reply's ancestor state to a Context. parentBody is the body
// of the immediate parent comment (empty when the parent is the post itself);
// postFlair is the parent post's flair. Rules are evaluated in strict order,
// first match wins. claimableOverride skips the code-of-conduct rule; it is
// used for internal re-validation of claim eligibility, where re-triggering
// the CoC flow would be wrong.
func Classify(parentBody, postFlair string, claimableOverride bool) Context {
	if !claimableOverride && IsCodeOfConductBody(parentBody) {
		return CodeOfConduct
	}
	if IsClaimableFlair(postFlair) {
		return Claimable
	}
	if IsClaimedFlair(postFlair) {
		return Claimed
	}
	return Unmatched
}
