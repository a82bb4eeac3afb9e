package reply

import "net/url"

// Version is the bot release tag carried in every footer.
const Version = "1.2.0"

const (
	faqLink    = "https://www.reddit.com/r/TranscribersOfReddit/wiki/index"
	sourceLink = "https://github.com/GrafeasGroup/tor_worker"
)

// Responses holds the canned texts the bot sends to volunteers.
var Responses = map[string]string{
	"mention": "Hi there! Thanks for pinging me!\n\n" +
		"Due to some changes with how Reddit and individual subreddits handle " +
		"bots, I can't be summoned directly to your comment anymore. If " +
		"there's something that you would like assistance with, please post " +
		"a link in /r/DescriptionPlease, and one of our lovely volunteers will " +
		"be along shortly.\n\nThanks for using our services! We hope we can " +
		"make your day a little bit better :)\n\nCheers,\n\n" +
		"The Mods of /r/TranscribersOfReddit",

	"intro_comment": "If you would like to claim this post, please respond to this comment " +
		"with the word `claiming` or `claim` in your response. I will " +
		"automatically update the flair so that only one person is working on a " +
		"post at any given time." +
		"\n\n" +
		"When you're done, please comment again with `done`. Your flair will " +
		"be updated to reflect the number of posts you've transcribed and " +
		"they will be marked as completed." +
		"\n\n" +
		"Post type: %s. Please use the following formatting:" +
		"\n\n---\n\n" +
		"%s" +
		"\n\n---\n\n" +
		"## Footer" +
		"\n\n" +
		"When you're done, please put the following footer at the **bottom** " +
		"of your post:" +
		"\n\n---\n\n" +
		"%s" +
		"\n\n---\n\n" +
		"If you have any questions, feel free to [message the mods!](%s)",

	"claim_success": "The post is yours! Best of luck and thanks for helping!" +
		"\n\n" +
		`Please respond with "done" when complete so we can check this one off ` +
		"the list!",

	"already_claimed": "I'm sorry, but it looks like someone else has already claimed this " +
		"post! You can check in with them to see if they need any help, but " +
		"otherwise I suggest sticking around to see if another post pops up " +
		"here in a little bit.",

	"no_transcript_found": "I couldn't find your transcription on the linked post, so I can't " +
		"mark this as complete just yet. Please double-check that your " +
		`transcription has the footer attached, then respond with "done" again.`,
}

// MessageLink builds a compose-a-message URL addressed to the mods.
func MessageLink(to, subject, message string) string {
	return "https://www.reddit.com/message/compose?" +
		"to=" + url.QueryEscape(to) +
		"&subject=" + url.QueryEscape(subject) +
		"&message=" + url.QueryEscape(message)
}

// FormatBotResponse appends the standard footer (version tag, help links) to
// a message. Every page the bot posts goes through this.
func FormatBotResponse(message string) string {
	modsLink := MessageLink("/r/TranscribersOfReddit", "Bot Questions", "")

	footer := "v" + Version +
		" | This message was posted by a bot." +
		" | [FAQ](" + faqLink + ")" +
		" | [Source](" + sourceLink + ")" +
		" | Questions? [Message the mods!](" + modsLink + ")"

	return message + "\n\n---\n\n" + footer
}
