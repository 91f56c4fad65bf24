// Package debate contains the core of the system: two Debaters, each
// wrapping a bound model and its own conversation history, and the Debate
// orchestrator that sequences their exchange.
//
// # Turn protocol
//
// A debate starts with both opening statements, computed independently and
// then cross-inserted into the opposing histories. After that barrier the
// rounds alternate: Debater A responds to B's latest message, the response
// is appended to B's history, then B responds symmetrically. Generation is
// strictly sequential; B's model call never starts before A's turn is fully
// resolved.
//
// # Tool sub-loop
//
// Within a single turn the bound model may request tool calls instead of a
// final answer. Each request is routed through the tool gateway, written to
// the transcript, and appended to the debater's own history as a tool
// result, after which the model is queried again. The cycle is bounded;
// exceeding the bound fails the turn with ErrToolLoopExceeded. Tool errors
// are not fatal: their text is fed back so the model can recover.
//
// # Failure model
//
// Model provider errors are fatal to the turn and bubble out of Run, which
// stops advancing rounds. The caller finalizes the transcript with whatever
// was produced; nothing recorded is ever lost to a later failure.
package debate
