package debate

import (
	"context"

	"github.com/m4xw311/podium/console"
	"github.com/m4xw311/podium/errors"
	"github.com/m4xw311/podium/transcript"
)

// Debate sequences the exchange between two debaters: opening statements,
// then alternating rounds until completion or the first fatal turn error.
type Debate struct {
	Topic  string
	Rounds int
	A, B   *Debater

	recorder  *transcript.Recorder
	sink      console.Sink
	completed int
}

// New assembles a debate session. The recorder's Close is the caller's
// responsibility (deferred around Run) so the transcript is finalized on
// every exit path, including cancellation.
func New(topic string, rounds int, a, b *Debater, recorder *transcript.Recorder, sink console.Sink) *Debate {
	return &Debate{
		Topic:    topic,
		Rounds:   rounds,
		A:        a,
		B:        b,
		recorder: recorder,
		sink:     sink,
	}
}

// CompletedRounds reports how many full rounds have finished.
func (d *Debate) CompletedRounds() int { return d.completed }

// Run drives the debate to completion. Within a round A always resolves
// fully (tool sub-loop included) before B's generation begins; B's reply is
// conditioned on A's just-produced message. A turn error aborts the
// remaining rounds; everything produced so far is already in the transcript.
func (d *Debate) Run(ctx context.Context) error {
	d.sink.Banner(d.Topic, d.Rounds)

	// Two-phase opening barrier: both openings are announced and seeded
	// into the owning history first, then cross-inserted, so neither
	// debater's opening depends on the other's.
	for _, deb := range []*Debater{d.A, d.B} {
		d.sink.Opening(deb.Name, deb.Opening())
		d.recorder.LogOpening(deb.Name, deb.Opening())
		deb.AddSelf(deb.Opening())
	}
	d.A.AddOpponent(d.B.Opening())
	d.B.AddOpponent(d.A.Opening())

	for round := 1; round <= d.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "debate interrupted before round %d", round)
		}

		d.sink.RoundHeader(round, d.Rounds)
		d.recorder.LogRound(round)

		if err := d.takeTurn(ctx, round, d.A, d.B); err != nil {
			return err
		}
		if err := d.takeTurn(ctx, round, d.B, d.A); err != nil {
			return err
		}
		d.completed = round
	}

	d.recorder.LogConclusion(d.completed)
	d.sink.Conclusion(d.Topic, d.completed)
	return nil
}

func (d *Debate) takeTurn(ctx context.Context, round int, speaker, opponent *Debater) error {
	response, err := speaker.Respond(ctx)
	if err != nil {
		return errors.Wrapf(err, "debate stopped in round %d", round)
	}
	d.recorder.LogMessage(speaker.Name, response)
	d.sink.Message(speaker.Name, response)
	opponent.AddOpponent(response)
	return nil
}
