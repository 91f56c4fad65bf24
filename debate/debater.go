package debate

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/m4xw311/podium/chat"
	"github.com/m4xw311/podium/console"
	"github.com/m4xw311/podium/errors"
	"github.com/m4xw311/podium/llm"
	"github.com/m4xw311/podium/tools"
	"github.com/m4xw311/podium/transcript"
)

// ErrToolLoopExceeded is returned when a model keeps requesting tools past
// the configured per-turn bound.
var ErrToolLoopExceeded = stderrors.New("tool call loop exceeded the per-turn bound")

// ToolGateway is the slice of the tool surface a debater needs: what is
// currently callable and how to call it.
type ToolGateway interface {
	Available() []tools.Tool
	Execute(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

// Debater is one participant: a bound model, a persona, and a private
// conversation history. The history only ever grows; it is never reordered
// or truncated while the debate runs, and no other component mutates it.
type Debater struct {
	Name    string
	persona string
	opening string

	client        llm.LLMClient
	gateway       ToolGateway
	recorder      *transcript.Recorder
	sink          console.Sink
	maxToolRounds int

	history []chat.Message
}

// NewDebater binds a model client and tool gateway to one participant.
// persona becomes the system prompt on every generation call.
func NewDebater(name, persona, opening string, client llm.LLMClient, gateway ToolGateway, recorder *transcript.Recorder, sink console.Sink, maxToolRounds int) *Debater {
	return &Debater{
		Name:          name,
		persona:       persona,
		opening:       opening,
		client:        client,
		gateway:       gateway,
		recorder:      recorder,
		sink:          sink,
		maxToolRounds: maxToolRounds,
	}
}

// Opening returns the configured opening statement.
func (d *Debater) Opening() string { return d.opening }

// AddSelf appends d's own statement to its history.
func (d *Debater) AddSelf(content string) {
	d.history = append(d.history, chat.Message{Role: "assistant", Content: content, Timestamp: time.Now()})
}

// AddOpponent appends the opponent's statement to d's history.
func (d *Debater) AddOpponent(content string) {
	d.history = append(d.history, chat.Message{Role: "user", Content: content, Timestamp: time.Now()})
}

// History returns a copy of the conversation history, for inspection.
func (d *Debater) History() []chat.Message {
	out := make([]chat.Message, len(d.history))
	copy(out, d.history)
	return out
}

// Respond generates d's next turn. The model may request tool calls before
// committing to an answer; each request is executed through the gateway,
// recorded, and fed back into the history so the next model pass sees the
// result. The request/execute cycle is bounded: past maxToolRounds the turn
// fails with ErrToolLoopExceeded. A model call failure is fatal to the turn
// and propagates; a tool failure is not, its text becomes the tool result.
func (d *Debater) Respond(ctx context.Context) (string, error) {
	for round := 0; round < d.maxToolRounds; round++ {
		resp, err := d.client.Chat(ctx, d.withSystem(), d.gateway.Available())
		if err != nil {
			return "", errors.Wrapf(err, "model call failed for %s", d.Name)
		}

		if len(resp.ToolCalls) == 0 {
			d.AddSelf(resp.Content)
			return resp.Content, nil
		}

		// Keep the request in history so the model sees its own calls
		// alongside the results on the next pass.
		d.history = append(d.history, chat.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: time.Now(),
		})

		for _, tc := range resp.ToolCalls {
			d.runToolCall(ctx, tc)
		}
	}
	return "", errors.Wrapf(ErrToolLoopExceeded, "%s used %d tool rounds without answering", d.Name, d.maxToolRounds)
}

// runToolCall executes one requested call, records it, and appends the
// result (or the error text, so the model can adapt) to the history.
func (d *Debater) runToolCall(ctx context.Context, tc chat.ToolCall) {
	d.sink.ToolCall(d.Name, tc.Name, tc.Args)

	result, err := d.gateway.Execute(ctx, tc.Name, tc.Args)

	rec := transcript.ToolCall{
		Caller: d.Name,
		Tool:   tc.Name,
		Args:   tc.Args,
		Time:   time.Now(),
	}
	feedback := result
	if err != nil {
		rec.Err = err.Error()
		feedback = "Error: " + err.Error()
	} else {
		rec.Result = result
	}
	d.recorder.LogToolCall(rec)
	d.sink.ToolResult(d.Name, tc.Name, feedback)

	d.history = append(d.history, chat.Message{
		Role:      "tool",
		Content:   feedback,
		ToolCalls: []chat.ToolCall{tc},
		Timestamp: time.Now(),
	})
}

// withSystem prepends the persona without mutating the stored history.
func (d *Debater) withSystem() []chat.Message {
	msgs := make([]chat.Message, 0, len(d.history)+1)
	msgs = append(msgs, chat.Message{Role: "system", Content: d.persona})
	return append(msgs, d.history...)
}
