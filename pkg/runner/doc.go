/*
Package runner plays a conversation interactively on top of a palaver.Game.

It is the bridge between the conversation interpreter and a human (or a host
process) on the other side of a stream. The Runner starts or resumes the
session's conversation, hands every batch of events to an IOHandler and turns
the replies into Select, CloseShop, Continue or End calls.

# Key Components

  - Runner: the loop, from start (or resume) to ConversationEnded.
  - IOHandler: decouples how events are shown and replies are read.
  - TextHandler: interactive terminal usage, with optional markdown rendering.
  - JSONHandler: JSON-Lines for host processes.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	sess, err := r.Run(ctx, game, sessionID, "merchant")
*/
package runner
